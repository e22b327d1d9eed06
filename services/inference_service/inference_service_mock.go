package inference_service

import (
	"context"
	"encoding/json"
)

type MockInferenceService struct {
	InvokeFunc func(ctx context.Context, modelID string, inputs string, parameters map[string]interface{}) (Response, error)
}

func (m *MockInferenceService) Invoke(ctx context.Context, modelID string, inputs string, parameters map[string]interface{}) (Response, error) {
	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, modelID, inputs, parameters)
	}
	return Response{Items: []json.RawMessage{json.RawMessage(`{"generated_text":"mock response"}`)}}, nil
}
