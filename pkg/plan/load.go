package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadMoves parses a plan file: a JSON list of moves. A full reassignment document
// (with version and partitions keys) is also accepted.
func LoadMoves(r io.Reader) ([]Move, error) {
	contents, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	moves := []Move{}
	if err := json.Unmarshal(contents, &moves); err == nil {
		return moves, validateMoves(moves)
	}

	reassignment := Reassignment{}
	decoder := json.NewDecoder(bytes.NewReader(contents))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&reassignment); err != nil {
		return nil, fmt.Errorf("Could not parse plan: %+v", err)
	}
	return reassignment.Partitions, validateMoves(reassignment.Partitions)
}

// LoadMovesFile parses the plan file at path.
func LoadMovesFile(path string) ([]Move, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadMoves(file)
}

func validateMoves(moves []Move) error {
	for i, move := range moves {
		if move.Topic == "" {
			return fmt.Errorf("Move %d has no topic", i)
		}
		if len(move.Replicas) == 0 {
			return fmt.Errorf("Move %d (%s:%d) has no replicas", i, move.Topic, move.Partition)
		}
	}
	return nil
}
