// ABOUTME: Graphviz rendering of the stage pipeline
// ABOUTME: One node per stage with totals, linked in board order
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/dealflow/aggregate"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
)

// GeneratePipelineGraph renders stages and their counts as DOT.
func GeneratePipelineGraph(ctx context.Context, stages pipeline.List, counts []aggregate.StageCount) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel("Pipeline")
	graph.SetRankDir(cgraph.LRRank)

	byStage := make(map[string]aggregate.StageCount, len(counts))
	for _, c := range counts {
		byStage[c.StageID] = c
	}

	var prev *cgraph.Node
	for _, st := range stages {
		node, err := stageNode(graph, st, byStage[st.ID])
		if err != nil {
			return "", err
		}
		if st.ID == models.StageClosedID {
			node.SetPenWidth(2)
		}
		if prev != nil {
			if _, err := graph.CreateEdgeByName("next_"+st.ID, prev, node); err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
		}
		prev = node
	}

	if unknown, ok := byStage[models.StageUnknownID]; ok && unknown.Count > 0 {
		node, err := stageNode(graph, stages.Resolve(models.StageUnknownID), unknown)
		if err != nil {
			return "", err
		}
		node.SetStyle("dashed")
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

func stageNode(graph *cgraph.Graph, st models.Stage, c aggregate.StageCount) (*cgraph.Node, error) {
	node, err := graph.CreateNodeByName("stage_" + st.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage node: %w", err)
	}
	node.SetLabel(fmt.Sprintf("%s\n%d · %s", st.Title, c.Count, money(c.Value)))
	node.SetShape("box")
	node.SetStyle("filled")
	node.SetFillColor(fillColor(st.Color))
	return node, nil
}

func fillColor(c string) string {
	if c == "" {
		return "lightgray"
	}
	return c
}
