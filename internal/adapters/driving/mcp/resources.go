package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

const (
	// uriScheme is the custom URI scheme for docrisk resources.
	uriScheme = "docrisk://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Active pipeline, provider and sink configuration (secrets redacted)",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "prompts/{name}",
		Name:        "prompt",
		Description: "Prompt template used for risk analysis, recommendations or query answers",
		MIMEType:    "text/plain",
	}, s.handlePromptResource)
}

// settingsView is the redacted JSON form of domain.Settings.
type settingsView struct {
	Pipeline struct {
		ChunkSize     int     `json:"chunk_size"`
		MaxTokens     int     `json:"max_tokens"`
		Temperature   float64 `json:"temperature"`
		Parallelism   int     `json:"parallelism"`
		CallTimeout   string  `json:"call_timeout"`
		ZeroTolerance bool    `json:"zero_tolerance"`
		RetrievalK    int     `json:"retrieval_k"`
		MaxRetries    int     `json:"max_retries"`
	} `json:"pipeline"`
	Generator providerView `json:"generator"`
	Embedding providerView `json:"embedding"`
	Retrieval string       `json:"retrieval"`
	Sinks     []string     `json:"sinks"`
}

type providerView struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

func newSettingsView(st *domain.Settings) settingsView {
	var v settingsView
	p := st.Pipeline
	v.Pipeline.ChunkSize = p.ChunkSize
	v.Pipeline.MaxTokens = p.MaxTokens
	v.Pipeline.Temperature = p.Temperature
	v.Pipeline.Parallelism = p.Parallelism
	v.Pipeline.CallTimeout = p.CallTimeout.String()
	v.Pipeline.ZeroTolerance = p.ZeroTolerance
	v.Pipeline.RetrievalK = p.RetrievalK
	v.Pipeline.MaxRetries = p.Retry.MaxRetries

	v.Generator = providerView{
		Provider: st.Generator.Provider.String(),
		Model:    st.Generator.Model,
		BaseURL:  st.Generator.BaseURL,
		APIKey:   logger.Redacted(st.Generator.APIKey),
	}
	v.Embedding = providerView{
		Provider: st.Embedding.Provider.String(),
		Model:    st.Embedding.Model,
		BaseURL:  st.Embedding.BaseURL,
		APIKey:   logger.Redacted(st.Embedding.APIKey),
	}
	v.Retrieval = st.Retrieval.Mode.String()

	sk := st.Sinks
	v.Sinks = []string{}
	for _, e := range []struct {
		name    string
		enabled bool
	}{
		{"archive", sk.Archive.Enabled},
		{"sheets", sk.Sheets.Enabled},
		{"s3", sk.S3.Enabled},
		{"email", sk.Email.Enabled},
		{"telegram", sk.Telegram.Enabled},
	} {
		if e.enabled {
			v.Sinks = append(v.Sinks, e.name)
		}
	}
	return v
}

// handleSettingsResource returns the active settings.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Settings == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}

	data, err := json.MarshalIndent(newSettingsView(settings), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handlePromptResource returns a prompt template.
func (s *Server) handlePromptResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractPromptName(req.Params.URI)
	if _, ok := driven.DefaultPrompt(name); !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	text, _ := driven.DefaultPrompt(name)
	if s.ports.Prompts != nil {
		loaded, err := s.ports.Prompts.Load(name)
		if err != nil {
			return nil, fmt.Errorf("loading prompt %s: %w", name, err)
		}
		text = loaded
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}, nil
}

// extractPromptName extracts the name from a URI like docrisk://prompts/{name}.
func extractPromptName(uri string) string {
	const prefix = uriScheme + "prompts/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
