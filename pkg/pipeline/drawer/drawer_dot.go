package drawer

import (
	"os"
	"sort"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/drihop/pkg/pipeline/measure"
)

// DOTDrawer writes the pipeline graph in the Graphviz DOT language.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	fileName string
}

// NewDOTDrawer creates a new DOT drawer writing to fileName.
func NewDOTDrawer(fileName string) *DOTDrawer {
	return &DOTDrawer{
		fileName: fileName,
		graph:    graph.New(graph.StringHash, graph.Directed()),
	}
}

// AddStep adds a step to the pipeline graph. Adding a step twice is a no-op.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"))
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return errors.Wrap(err, "unable to add vertex")
	}

	return nil
}

// AddLink adds a link between parent and children steps.
func (d *DOTDrawer) AddLink(parentName, childrenName string) error {
	err := d.graph.AddEdge(parentName, childrenName)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childrenName)
	}

	return nil
}

// Draw writes the pipeline graph to the drawer file.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	err = draw.DOT(d.graph, file, draw.GraphAttribute("rankdir", "LR"))
	if err != nil {
		return errors.Wrapf(err, "unable to write dot file %s", d.fileName)
	}

	return file.Close()
}

// SetTotalTime labels the step with the time elapsed since startTime.
func (d *DOTDrawer) SetTotalTime(stepName string, startTime time.Time) error {
	_, properties, err := d.graph.VertexWithProperties(stepName)
	if err != nil {
		return errors.Wrapf(err, "unable to get %s vertex properties", stepName)
	}

	properties.Attributes["xlabel"] = time.Since(startTime).Round(time.Millisecond).String()

	return nil
}

const maxRGB = 240

// edgeColor maps elapsed onto a blue (fast) to red (slow) scale.
func edgeColor(elapsed, minValue, maxValue time.Duration) (string, error) {
	fraction := 1.0
	if maxValue > minValue {
		fraction = float64(elapsed-minValue) / float64(maxValue-minValue)
	}

	red := maxRGB * fraction
	blue := maxRGB - red

	color, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return color.ToHEX().String(), nil
}

// AddMeasure labels steps with their average duration and colours edges by transport time.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	var elapsed []time.Duration

	for _, step := range msr.AllMetrics() {
		for _, info := range step.AVGTransportDuration() {
			if info.Elapsed == 0 {
				continue
			}
			elapsed = append(elapsed, info.Elapsed)
		}
	}

	sort.Slice(elapsed, func(i, j int) bool {
		return elapsed[i] < elapsed[j]
	})

	var minValue, maxValue time.Duration
	if len(elapsed) > 0 {
		minValue, maxValue = elapsed[0], elapsed[len(elapsed)-1]
	}

	for name, step := range msr.AllMetrics() {
		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			if errors.Is(err, graph.ErrVertexNotFound) {
				continue
			}

			return errors.Wrap(err, "unable to get vertex properties")
		}

		if stepAvg := step.AVGDuration(); stepAvg != 0 {
			properties.Attributes["xlabel"] = stepAvg.String()
		}
		if total := step.GetTotalDuration(); total > 0 {
			properties.Attributes["xlabel"] += ", end: " + total.String()
		}

		for inputStep, info := range step.AVGTransportDuration() {
			if info.Elapsed == 0 {
				continue
			}

			color, err := edgeColor(info.Elapsed, minValue, maxValue)
			if err != nil {
				return err
			}

			err = d.graph.UpdateEdge(inputStep, name,
				graph.EdgeAttribute("label", info.Elapsed.String()),
				graph.EdgeAttribute("fontcolor", "blue"),
				graph.EdgeAttribute("color", color),
			)
			if err != nil && !errors.Is(err, graph.ErrEdgeNotFound) {
				return errors.Wrap(err, "unable to update edge")
			}
		}
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
