package cluster

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/segmentio/kassigner/pkg/util"
)

// FormatDiffs returns a table of the argument moves, showing the replicas each partition
// had in baseline next to its new replicas. In a terminal, new replicas are colored red
// and replicas that only changed position are colored cyan.
func FormatDiffs(baseline *Cluster, moves []*Partition) string {
	buf := &bytes.Buffer{}

	table := tablewriter.NewWriter(buf)
	table.SetHeader(
		[]string{
			"Topic",
			"Partition",
			"Curr Replicas",
			"New Replicas",
			"Leader Change",
		},
	)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment(
		[]int{
			tablewriter.ALIGN_LEFT,
			tablewriter.ALIGN_LEFT,
			tablewriter.ALIGN_LEFT,
			tablewriter.ALIGN_LEFT,
			tablewriter.ALIGN_LEFT,
		},
	)
	table.SetBorders(
		tablewriter.Border{
			Left:   false,
			Top:    true,
			Right:  false,
			Bottom: true,
		},
	)

	for _, move := range moves {
		var oldIDs []int
		if original, err := baseline.Partition(move.TopicName(), move.Num); err == nil {
			oldIDs = original.ReplicaIDs()
		}
		newIDs := move.ReplicaIDs()

		leaderChange := ""
		if len(oldIDs) > 0 && len(newIDs) > 0 && oldIDs[0] != newIDs[0] {
			leaderChange = fmt.Sprintf("%d -> %d", oldIDs[0], newIDs[0])
		}

		table.Append(
			[]string{
				move.TopicName(),
				fmt.Sprintf("%d", move.Num),
				fmt.Sprintf("%+v", oldIDs),
				replicasDiffStr(oldIDs, newIDs),
				leaderChange,
			},
		)
	}

	table.Render()
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// FormatBrokerSummary returns a table with the partition count and total size of every
// broker at every replica position.
func FormatBrokerSummary(c *Cluster) string {
	buf := &bytes.Buffer{}

	maxRF := c.MaxReplicationFactor()

	headers := []string{"ID", "Rack"}
	for p := 0; p < maxRF; p++ {
		headers = append(headers, fmt.Sprintf("Position %d", p+1))
	}
	headers = append(headers, "Total", "Size")

	alignments := []int{}
	for range headers {
		alignments = append(alignments, tablewriter.ALIGN_LEFT)
	}

	table := tablewriter.NewWriter(buf)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment(alignments)
	table.SetBorders(
		tablewriter.Border{
			Left:   false,
			Top:    true,
			Right:  false,
			Bottom: true,
		},
	)

	for _, broker := range c.Brokers() {
		row := []string{
			fmt.Sprintf("%d", broker.ID),
			broker.Rack,
		}
		for p := 0; p < maxRF; p++ {
			row = append(row, fmt.Sprintf("%d", broker.NumPartitionsAtPosition(p)))
		}
		row = append(
			row,
			fmt.Sprintf("%d", broker.NumPartitions()),
			util.PrettyBytes(broker.TotalSize()),
		)
		table.Append(row)
	}

	table.Render()
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func replicasDiffStr(oldIDs []int, newIDs []int) string {
	if !util.InTerminal() {
		return fmt.Sprintf("%+v", newIDs)
	}

	added := color.New(color.FgRed).SprintfFunc()
	moved := color.New(color.FgCyan).SprintfFunc()

	elements := []string{}
	for r, id := range newIDs {
		switch {
		case r < len(oldIDs) && oldIDs[r] == id:
			elements = append(elements, fmt.Sprintf("%d", id))
		case indexOf(oldIDs, id) >= 0:
			elements = append(elements, moved("%d", id))
		default:
			elements = append(elements, added("%d", id))
		}
	}

	return fmt.Sprintf("[%s]", strings.Join(elements, " "))
}

func indexOf(values []int, value int) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}
