/*
DESCRIPTION
  eval.go provides evaluation of predictions against per frame labels.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package classify

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ReadLabels reads per frame labels from r. Each line holds a label and the
// frame its segment ends before, separated by a comma, e.g.
//
//	walk,120
//	run,300
//
// labels frames [0, 120) walk and [120, 300) run. Segments may be empty.
// Blank lines are ignored.
func ReadLabels(r io.Reader) ([]string, error) {
	var labels []string
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		label, end, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("line %d: expected label,end_frame", n)
		}
		last, err := strconv.Atoi(strings.TrimSpace(end))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid end frame: %w", n, err)
		}
		if last < len(labels) {
			return nil, fmt.Errorf("line %d: end frame %d precedes frame %d", n, last, len(labels))
		}
		label = strings.TrimSpace(label)
		for len(labels) < last {
			labels = append(labels, label)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// WindowLabel returns the label of the frame at the centre of the window
// starting at frame pos, which is the label a windowed prediction at pos is
// compared with.
func WindowLabel(labels []string, window, pos int) (string, bool) {
	i := window/2 + pos
	if pos < 0 || i >= len(labels) {
		return "", false
	}
	return labels[i], true
}

// Confusion counts predictions by true label (rows) and predicted label
// (columns).
type Confusion struct {
	Labels []string
	Counts [][]int
}

// NewConfusion returns the confusion matrix of pred against truth, which
// must have equal length. Labels holds every label present in either.
func NewConfusion(truth, pred []string) (*Confusion, error) {
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("%d predictions for %d labels", len(pred), len(truth))
	}
	c := &Confusion{Labels: uniq(append(append([]string(nil), truth...), pred...))}
	index := make(map[string]int, len(c.Labels))
	for i, l := range c.Labels {
		index[l] = i
	}
	c.Counts = make([][]int, len(c.Labels))
	for i := range c.Counts {
		c.Counts[i] = make([]int, len(c.Labels))
	}
	for i := range truth {
		c.Counts[index[truth[i]]][index[pred[i]]]++
	}
	return c, nil
}

// Accuracy returns the fraction of correct predictions, or NaN if there are
// none.
func (c *Confusion) Accuracy() float64 {
	var correct, total int
	for i, row := range c.Counts {
		for j, n := range row {
			total += n
			if i == j {
				correct += n
			}
		}
	}
	if total == 0 {
		return math.NaN()
	}
	return float64(correct) / float64(total)
}

// String formats the matrix as a table.
func (c *Confusion) String() string {
	w := 4
	for _, l := range c.Labels {
		w = max(w, len(l))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%*s", w, "")
	for _, l := range c.Labels {
		fmt.Fprintf(&b, " %*s", w, l)
	}
	for i, row := range c.Counts {
		fmt.Fprintf(&b, "\n%*s", w, c.Labels[i])
		for _, n := range row {
			fmt.Fprintf(&b, " %*d", w, n)
		}
	}
	return b.String()
}

// Accuracy returns the fraction of pred equal to truth, or NaN for empty
// input.
func Accuracy(truth, pred []string) float64 {
	c, err := NewConfusion(truth, pred)
	if err != nil {
		return math.NaN()
	}
	return c.Accuracy()
}

// ErrOneClass is returned by ROC when only one class is present.
var ErrOneClass = errors.New("ROC needs positive and negative examples")

// ROC returns the receiver operating characteristic of scores against the
// binary classes, with false positive rates ascending, and the area under
// the curve.
func ROC(scores []float64, classes []bool) (fpr, tpr []float64, auc float64, err error) {
	if len(scores) != len(classes) {
		return nil, nil, 0, fmt.Errorf("%d scores for %d classes", len(scores), len(classes))
	}
	var pos int
	for _, c := range classes {
		if c {
			pos++
		}
	}
	if pos == 0 || pos == len(classes) {
		return nil, nil, 0, ErrOneClass
	}

	y := append([]float64(nil), scores...)
	c := append([]bool(nil), classes...)
	stat.SortWeightedLabeled(y, c, nil)
	tpr, fpr, _ = stat.ROC(nil, y, c, nil)
	return fpr, tpr, integrate.Trapezoidal(fpr, tpr), nil
}

// AUC returns the one-vs-rest area under the ROC curve for each of labels,
// given probabilities ordered as labels and the true labels.
// Labels absent from truth, or making up all of it, are omitted.
func AUC(labels []string, probs [][]float64, truth []string) (map[string]float64, error) {
	if len(probs) != len(truth) {
		return nil, fmt.Errorf("%d probabilities for %d labels", len(probs), len(truth))
	}
	aucs := make(map[string]float64)
	scores := make([]float64, len(probs))
	classes := make([]bool, len(probs))
	for k, l := range labels {
		for i, p := range probs {
			if len(p) != len(labels) {
				return nil, fmt.Errorf("probability %d has %d entries, want %d", i, len(p), len(labels))
			}
			scores[i] = p[k]
			classes[i] = truth[i] == l
		}
		_, _, auc, err := ROC(scores, classes)
		if errors.Is(err, ErrOneClass) {
			continue
		}
		if err != nil {
			return nil, err
		}
		aucs[l] = auc
	}
	return aucs, nil
}

// SortedKeys returns the keys of m in order.
func SortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
