// ABOUTME: MCP server assembly for the opportunity tools and resources
// ABOUTME: The server acts as the configured actor for every permission check
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/dealflow/crm"
)

// NewServer registers every dealflow tool and resource on a fresh server.
func NewServer(svc *crm.Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "dealflow", Version: version}, nil)

	h := NewOpportunityHandlers(svc)
	mcp.AddTool(server, &mcp.Tool{Name: "list_opportunities", Description: "List opportunities newest first, optionally on one stage, with cursor paging"}, h.ListOpportunities)
	mcp.AddTool(server, &mcp.Tool{Name: "create_opportunity", Description: "Create an opportunity on the pipeline"}, h.CreateOpportunity)
	mcp.AddTool(server, &mcp.Tool{Name: "update_opportunity", Description: "Update an opportunity's name, value, status, contact, tags, or follow-up date"}, h.UpdateOpportunity)
	mcp.AddTool(server, &mcp.Tool{Name: "move_opportunity", Description: "Move an opportunity to another stage; entering the closed stage marks it won"}, h.MoveOpportunity)
	mcp.AddTool(server, &mcp.Tool{Name: "delete_opportunity", Description: "Delete an opportunity"}, h.DeleteOpportunity)
	mcp.AddTool(server, &mcp.Tool{Name: "add_note", Description: "Add a note to an opportunity"}, h.AddNote)
	mcp.AddTool(server, &mcp.Tool{Name: "add_task", Description: "Add a task to an opportunity, optionally assigned to someone"}, h.AddTask)
	mcp.AddTool(server, &mcp.Tool{Name: "toggle_task", Description: "Toggle a task's completion; allowed for its author or assignee"}, h.ToggleTask)
	mcp.AddTool(server, &mcp.Tool{Name: "delete_task", Description: "Delete a task; only its author may"}, h.DeleteTask)
	mcp.AddTool(server, &mcp.Tool{Name: "pipeline_summary", Description: "Count and total value of opportunities per stage"}, h.PipelineSummary)
	mcp.AddTool(server, &mcp.Tool{Name: "dashboard", Description: "Conversion, outcomes, and task statistics over a window of days"}, h.Dashboard)

	r := NewResourceHandlers(svc)
	server.AddResource(&mcp.Resource{URI: resourceScheme + "stages", Name: "stages", MIMEType: "application/json"}, r.ReadResource)
	server.AddResource(&mcp.Resource{URI: resourceScheme + "pipeline", Name: "pipeline", MIMEType: "application/json"}, r.ReadResource)
	server.AddResourceTemplate(&mcp.ResourceTemplate{URITemplate: resourceScheme + "opportunities/{id}", Name: "opportunity", MIMEType: "application/json"}, r.ReadResource)

	return server
}
