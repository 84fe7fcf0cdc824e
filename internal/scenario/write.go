package scenario

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/elektrokombinacija/cellplan/internal/core"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Write emits cell in the scenario format Parse reads. Missing joint
// rows are written as zeros.
func Write(w io.Writer, cell *core.Cell) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d %d\n", len(cell.Robots), len(cell.Operations))
	for _, r := range cell.Robots {
		fmt.Fprintf(bw, "%s %s %s\n", num(r.Base.X), num(r.Base.Y), num(r.Base.Z))
	}
	for i := 0; i < JointCount; i++ {
		var j core.JointLimit
		if i < len(cell.Joints) {
			j = cell.Joints[i]
		}
		fmt.Fprintf(bw, "%s %s %s %s\n", num(j.Min), num(j.Max), num(j.VMax), num(j.AMax))
	}
	fmt.Fprintf(bw, "%s %s\n", num(cell.ToolClearance), num(cell.SafeDist))
	for _, op := range cell.Operations {
		fmt.Fprintf(bw, "%s %s %s %s %s %s %s\n",
			num(op.Pick.X), num(op.Pick.Y), num(op.Pick.Z),
			num(op.Place.X), num(op.Place.Y), num(op.Place.Z),
			num(op.Dwell))
	}
	return bw.Flush()
}
