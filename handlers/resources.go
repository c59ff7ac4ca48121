// ABOUTME: MCP resource handlers exposing opportunities and stages read-only
// ABOUTME: Serves dealflow:// URIs as JSON documents
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/dealflow/crm"
)

const resourceScheme = "dealflow://"

type ResourceHandlers struct {
	svc *crm.Service
}

func NewResourceHandlers(svc *crm.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{URI: uri, MIMEType: "application/json", Text: string(data)},
	}}, nil
}

// ReadResource serves dealflow://opportunities/{id}, dealflow://stages and dealflow://pipeline.
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}
	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")

	switch parts[0] {
	case "opportunities":
		if len(parts) < 2 || parts[1] == "" {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		opp, err := h.svc.Opportunity(ctx, parts[1])
		if err != nil {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return jsonResource(uri, opportunityToOutput(opp))

	case "stages":
		stages, err := h.svc.Stages(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, stages)

	case "pipeline":
		counts, err := h.svc.RefreshStageCounts(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, toSummaries(counts))

	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}
