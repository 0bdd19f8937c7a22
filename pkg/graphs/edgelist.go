package graphs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
)

// EdgeList is a graph read from a text edge list. Node IDs are assigned in
// order of first appearance; Labels[id] is the original node name.
type EdgeList struct {
	Graph  *simple.WeightedUndirectedGraph
	Labels []string

	SelfLoops int // self edges skipped while reading
}

// ReadEdgeListFile reads an edge list from a file
func ReadEdgeListFile(filename string) (*EdgeList, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open edge list: %w", err)
	}
	defer file.Close()

	el, err := ReadEdgeList(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return el, nil
}

// ReadEdgeList parses lines of the form "from to [weight]". Blank lines and
// lines starting with # are ignored. The weight defaults to 1.
func ReadEdgeList(r io.Reader) (*EdgeList, error) {
	el := &EdgeList{Graph: simple.NewWeightedUndirectedGraph(0, 0)}
	ids := make(map[string]int64)

	nodeID := func(label string) int64 {
		if id, ok := ids[label]; ok {
			return id
		}
		id := int64(len(el.Labels))
		ids[label] = id
		el.Labels = append(el.Labels, label)
		el.Graph.AddNode(simple.Node(id))
		return id
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected 'from to [weight]', got %q", lineNo, line)
		}

		weight := 1.0
		if len(parts) >= 3 {
			w, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid weight %q: %w", lineNo, parts[2], err)
			}
			weight = w
		}

		from := nodeID(parts[0])
		to := nodeID(parts[1])
		if from == to {
			el.SelfLoops++
			continue
		}
		el.Graph.SetWeightedEdge(el.Graph.NewWeightedEdge(simple.Node(from), simple.Node(to), weight))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(el.Labels) == 0 {
		return nil, fmt.Errorf("edge list contains no edges")
	}
	return el, nil
}
