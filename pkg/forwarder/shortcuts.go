package forwarder

import (
	"context"
	"fmt"

	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/aimodel"
	"github.com/ollamafleet/router/ent/endpointaimodel"
	"github.com/ollamafleet/router/pkg/ollama"
)

// rootGreeting matches Ollama's own root-path response, so clients that
// probe "is this an Ollama server" behave identically against the fleet.
const rootGreeting = "Ollama is running"

// openAIModel is one entry in the "v1/models" OpenAI-compatible listing.
type openAIModel struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

type openAIModelsResponse struct {
	Object string        `json:"object"`
	Data   []openAIModel `json:"data"`
}

// availableModelTags returns every distinct "name:tag" pair with at
// least one AVAILABLE EndpointAIModel link — the set both the api/tags
// and v1/models shortcuts list. One row per model is returned directly
// by the HasEndpointLinksWith predicate, the same has-edge-matching
// predicate idiom used throughout pkg/services.
func (f *Forwarder) availableModelTags(ctx context.Context) ([]*ent.AIModel, error) {
	models, err := f.client.AIModel.Query().
		Where(aimodel.HasEndpointLinksWith(endpointaimodel.StatusEQ(endpointaimodel.StatusAvailable))).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available models: %w", err)
	}
	return models, nil
}

func (f *Forwarder) tagsResponse(ctx context.Context) (*ollama.TagsResponse, error) {
	models, err := f.availableModelTags(ctx)
	if err != nil {
		return nil, err
	}
	out := &ollama.TagsResponse{Models: make([]ollama.Tag, 0, len(models))}
	for _, m := range models {
		out.Models = append(out.Models, ollama.Tag{Model: m.Name + ":" + m.Tag})
	}
	return out, nil
}

func (f *Forwarder) openAIModelsResponse(ctx context.Context) (*openAIModelsResponse, error) {
	models, err := f.availableModelTags(ctx)
	if err != nil {
		return nil, err
	}
	out := &openAIModelsResponse{Object: "list", Data: make([]openAIModel, 0, len(models))}
	for _, m := range models {
		out.Data = append(out.Data, openAIModel{
			ID:      m.Name + ":" + m.Tag,
			Object:  "model",
			OwnedBy: "ollamafleet",
		})
	}
	return out, nil
}
