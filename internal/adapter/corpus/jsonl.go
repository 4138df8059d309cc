// Package corpus reads and writes the line-delimited JSON files exchanged
// with the ingest and identity-resolution pipelines and between stages.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"note-ranker/internal/domain"
	"note-ranker/internal/usecase/ranking"
)

// maxLineBytes bounds a single corpus line; clinical note chunks are far
// smaller than this.
const maxLineBytes = 4 * 1024 * 1024

// LoadChunks reads a chunk corpus file. Lines that fail to parse or lack a
// chunk_id are skipped and counted, never silently dropped: the skip count
// is surfaced in the stage summary.
func LoadChunks(path string) (*domain.Corpus, int, error) {
	var chunks []domain.Chunk
	skipped, err := scanLines(path, func(line []byte) bool {
		var c domain.Chunk
		if json.Unmarshal(line, &c) != nil || c.ChunkID == "" {
			return false
		}
		chunks = append(chunks, c)
		return true
	})
	if err != nil {
		return nil, 0, fmt.Errorf("load chunks %s: %w", path, err)
	}
	return domain.NewCorpus(chunks), skipped, nil
}

// LoadNotes reads raw notes for the chunking step.
func LoadNotes(path string) ([]domain.Note, int, error) {
	var notes []domain.Note
	skipped, err := scanLines(path, func(line []byte) bool {
		var n domain.Note
		if json.Unmarshal(line, &n) != nil || n.NoteID == "" || n.Text == "" {
			return false
		}
		notes = append(notes, n)
		return true
	})
	if err != nil {
		return nil, 0, fmt.Errorf("load notes %s: %w", path, err)
	}
	return notes, skipped, nil
}

// LoadNoteLinks reads the optional note-link table. An empty path yields a
// nil table, which the judge treats as "no patient resolved for anything".
func LoadNoteLinks(path string) (domain.NoteLinkTable, int, error) {
	if path == "" {
		return nil, 0, nil
	}
	table := make(domain.NoteLinkTable)
	skipped, err := scanLines(path, func(line []byte) bool {
		var l domain.NoteLink
		if json.Unmarshal(line, &l) != nil || l.NoteUID == "" || l.PatientUID == "" {
			return false
		}
		table[l.NoteUID] = l.PatientUID
		return true
	})
	if err != nil {
		return nil, 0, fmt.Errorf("load note links %s: %w", path, err)
	}
	return table, skipped, nil
}

// LoadCalibration reads the reference calibration set for the judge stage.
// An empty path yields no points, which falls back to identity calibration.
func LoadCalibration(path string) ([]ranking.CalibrationPoint, int, error) {
	if path == "" {
		return nil, 0, nil
	}
	var points []ranking.CalibrationPoint
	skipped, err := scanLines(path, func(line []byte) bool {
		var p ranking.CalibrationPoint
		if json.Unmarshal(line, &p) != nil {
			return false
		}
		points = append(points, p)
		return true
	})
	if err != nil {
		return nil, 0, fmt.Errorf("load calibration %s: %w", path, err)
	}
	return points, skipped, nil
}

// LoadCandidates reads a scout output file for a standalone inspect run.
func LoadCandidates(path string) ([]domain.Candidate, int, error) {
	var cands []domain.Candidate
	skipped, err := scanLines(path, func(line []byte) bool {
		var c domain.Candidate
		if json.Unmarshal(line, &c) != nil || c.ChunkID == "" {
			return false
		}
		cands = append(cands, c)
		return true
	})
	if err != nil {
		return nil, 0, fmt.Errorf("load candidates %s: %w", path, err)
	}
	return cands, skipped, nil
}

// LoadRescored reads an inspector output file for a standalone judge run.
func LoadRescored(path string) ([]domain.RescoredCandidate, int, error) {
	var cands []domain.RescoredCandidate
	skipped, err := scanLines(path, func(line []byte) bool {
		var c domain.RescoredCandidate
		if json.Unmarshal(line, &c) != nil || c.ChunkID == "" {
			return false
		}
		cands = append(cands, c)
		return true
	})
	if err != nil {
		return nil, 0, fmt.Errorf("load rescored %s: %w", path, err)
	}
	return cands, skipped, nil
}

// WriteJSONL writes one JSON object per line in slice order. Field order is
// fixed by the record structs, so identical inputs produce byte-identical
// files.
func WriteJSONL[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode record in %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// StageSummary is a stage's diagnostics sidecar. Skipped input lines are
// warnings surfaced here, not failures.
type StageSummary struct {
	Stage         string `json:"stage"`
	RunID         string `json:"run_id"`
	Query         string `json:"query,omitempty"`
	InputCount    int    `json:"input_count"`
	OutputCount   int    `json:"output_count"`
	SkippedLines  int    `json:"skipped_lines"`
	PatientLinked int    `json:"patient_linked,omitempty"`
	Uncalibrated  bool   `json:"uncalibrated,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
}

// WriteSummary writes the diagnostics sidecar next to the stage output.
func WriteSummary(path string, s StageSummary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

// scanLines applies parse to every non-blank line and returns how many
// lines were rejected. A line longer than maxLineBytes is skipped and
// counted like any other malformed line; the rest of the file still loads.
func scanLines(path string, parse func(line []byte) bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, 64*1024)
	skipped := 0
	var line []byte
	tooLong := false
	for {
		frag, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			return skipped, nil
		}
		if err != nil {
			return skipped, err
		}
		if !tooLong {
			line = append(line, frag...)
			if len(line) > maxLineBytes {
				tooLong = true
				line = line[:0]
			}
		}
		if isPrefix {
			continue
		}
		if tooLong {
			skipped++
		} else if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 && !parse(trimmed) {
			skipped++
		}
		line = line[:0]
		tooLong = false
	}
}
