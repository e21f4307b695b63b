package services

import (
	"context"

	"github.com/scholardesk/scholardesk-backend/internal/clients/ai"
	"github.com/scholardesk/scholardesk-backend/internal/clients/answer"
)

type fakeAIClient struct {
	extract      ai.ExtractResult
	extractErr   error
	summary      ai.SummaryResult
	summaryErr   error
	citations    []ai.CitationRecord
	citationsErr error
	keywords     ai.KeywordsResult
	keywordsErr  error
	healthErr    error

	citationCalls int
}

func (f *fakeAIClient) ExtractText(ctx context.Context, fileName, mimeType string, content []byte) (ai.ExtractResult, error) {
	return f.extract, f.extractErr
}

func (f *fakeAIClient) Summarize(ctx context.Context, text string, maxLength int) (ai.SummaryResult, error) {
	return f.summary, f.summaryErr
}

func (f *fakeAIClient) ExtractCitations(ctx context.Context, text string) ([]ai.CitationRecord, error) {
	f.citationCalls++
	return f.citations, f.citationsErr
}

func (f *fakeAIClient) ExtractKeywords(ctx context.Context, text string, topN int) (ai.KeywordsResult, error) {
	return f.keywords, f.keywordsErr
}

func (f *fakeAIClient) Health(ctx context.Context) error { return f.healthErr }

type fakeBucket struct {
	content []byte
	err     error
}

func (f *fakeBucket) ReadAll(ctx context.Context, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

type fakeAnswerClient struct {
	result answer.Result
	err    error

	lastRequest answer.Request
	calls       int
}

func (f *fakeAnswerClient) AnswerQuestion(ctx context.Context, req answer.Request) (answer.Result, error) {
	f.calls++
	f.lastRequest = req
	if f.err != nil {
		return answer.Result{}, f.err
	}
	return f.result, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }
