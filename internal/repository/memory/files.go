package memory

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/geetaway-search-api/internal/models"
)

// DataPoint is one line of the embeddings JSONL file. The same format is accepted by
// Vertex AI Vector Search batch imports.
type DataPoint struct {
	ID        string     `json:"id"`
	Embedding []float32  `json:"embedding"`
	Restricts []Restrict `json:"restricts,omitempty"`
}

// Restrict defines a token-based filter
type Restrict struct {
	Namespace string   `json:"namespace"`
	Allow     []string `json:"allow"`
}

// metadataEntry is one element of metadata.json
type metadataEntry struct {
	ID          string   `json:"id"`
	Chapter     int      `json:"chapter"`
	Verse       int      `json:"verse"`
	Sanskrit    string   `json:"sanskrit"`
	English     string   `json:"english"`
	Themes      []string `json:"themes"`
	IsPractical bool     `json:"is_practical"`
}

// ReadMetadata loads verse records from a metadata.json file, ordered by chapter, then verse
func ReadMetadata(path string) ([]models.VerseRecord, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, openError("metadata", path, err)
	}
	defer f.Close()

	var entries []metadataEntry
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %v: %w", path, err, models.ErrResourceUnavailable)
	}

	records := make([]models.VerseRecord, 0, len(entries))
	seen := make(map[models.VerseRef]bool, len(entries))
	for i, e := range entries {
		ref := models.VerseRef{Chapter: e.Chapter, Verse: e.Verse}
		if ref.Chapter < 1 || ref.Verse < 1 {
			return nil, fmt.Errorf("metadata entry %d has invalid reference %d.%d: %w", i, e.Chapter, e.Verse, models.ErrResourceUnavailable)
		}
		if e.English == "" || e.Sanskrit == "" {
			return nil, fmt.Errorf("metadata entry %s has empty text: %w", ref.ID(), models.ErrResourceUnavailable)
		}
		if seen[ref] {
			return nil, fmt.Errorf("metadata entry %s is duplicated: %w", ref.ID(), models.ErrResourceUnavailable)
		}
		seen[ref] = true

		themes := e.Themes
		if themes == nil {
			themes = []string{}
		}
		records = append(records, models.VerseRecord{
			VerseRef:       ref,
			SourceText:     e.Sanskrit,
			TranslatedText: e.English,
			Themes:         themes,
			IsPractical:    e.IsPractical,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Less(records[j].VerseRef)
	})
	return records, nil
}

// WriteMetadata writes verse records as metadata.json
func WriteMetadata(path string, records []models.VerseRecord) error {
	entries := make([]metadataEntry, len(records))
	for i, r := range records {
		entries[i] = metadataEntry{
			ID:          r.ID(),
			Chapter:     r.Chapter,
			Verse:       r.Verse,
			Sanskrit:    r.SourceText,
			English:     r.TranslatedText,
			Themes:      r.Themes,
			IsPractical: r.IsPractical,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadEmbeddings loads an embeddings JSONL file keyed by canonical verse ID
func ReadEmbeddings(path string) (map[string][]float32, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, openError("embeddings", path, err)
	}
	defer f.Close()

	vectors := make(map[string][]float32)
	err = ScanDataPoints(f, func(dp DataPoint) error {
		ref, err := models.ParseVerseRef(dp.ID)
		if err != nil {
			return err
		}
		vectors[ref.ID()] = dp.Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read embeddings %s: %v: %w", path, err, models.ErrResourceUnavailable)
	}
	return vectors, nil
}

// ScanDataPoints decodes JSONL data points one line at a time
func ScanDataPoints(r io.Reader, fn func(DataPoint) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var dp DataPoint
		if err := json.Unmarshal(scanner.Bytes(), &dp); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if dp.ID == "" {
			return fmt.Errorf("line %d: missing id", line)
		}
		if err := fn(dp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// WriteDataPoint encodes a single data point as one JSONL line
func WriteDataPoint(w io.Writer, dp DataPoint) error {
	data, err := json.Marshal(dp)
	if err != nil {
		return fmt.Errorf("marshal data point %s: %w", dp.ID, err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func openError(kind, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s file %s not found: %w", kind, path, models.ErrResourceUnavailable)
	}
	return fmt.Errorf("open %s file %s: %v: %w", kind, path, err, models.ErrResourceUnavailable)
}
