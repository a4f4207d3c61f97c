package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"crime_news/internal/models"
)

const (
	dateColumn    = "DATE OCC"
	descentColumn = "Vict Descent"

	// DateLayout - формат DATE OCC, например "03/14/2021 12:00:00 AM".
	DateLayout = "01/02/2006 03:04:05 PM"
)

// ErrNoLocalFile - файл не найден ни по имени, ни сканированием каталога.
var ErrNoLocalFile = errors.New("local dataset not found")

var descentCodes = map[string]models.Category{
	"B": models.Black,
	"W": models.White,
	"H": models.Hispanic,
	"A": models.Asian,
}

// FindLocalFile ищет файл сначала по имени, затем в DataDir по подстроке FileMatch и расширению .csv.
func (l *Loader) FindLocalFile() (string, error) {
	candidates := []string{l.opts.LocalFile}
	if l.opts.LocalFile != "" && !filepath.IsAbs(l.opts.LocalFile) && l.opts.DataDir != "" {
		candidates = append(candidates, filepath.Join(l.opts.DataDir, l.opts.LocalFile))
	}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}

	if l.opts.DataDir == "" || l.opts.FileMatch == "" {
		return "", ErrNoLocalFile
	}

	entries, err := os.ReadDir(l.opts.DataDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoLocalFile, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() {
			continue
		}
		if strings.Contains(name, l.opts.FileMatch) && strings.EqualFold(filepath.Ext(name), ".csv") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", ErrNoLocalFile
	}
	sort.Strings(names)
	return filepath.Join(l.opts.DataDir, names[0]), nil
}

// LoadLocal строит распределение из найденного файла с происшествиями.
func (l *Loader) LoadLocal() (models.Distribution, string, error) {
	path, err := l.FindLocalFile()
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, path, err
	}
	defer f.Close()

	dist, err := ReadIncidents(f)
	return dist, path, err
}

// ReadIncidents читает CSV, где строка - одно происшествие. Строки с
// неразборчивой датой или неизвестным кодом отбрасываются.
func ReadIncidents(r io.Reader) (models.Distribution, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateIdx, descentIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case dateColumn:
			dateIdx = i
		case descentColumn:
			descentIdx = i
		}
	}
	if dateIdx < 0 || descentIdx < 0 {
		return nil, fmt.Errorf("%w: %q or %q column", ErrMissingFields, dateColumn, descentColumn)
	}

	counts := tally{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if dateIdx >= len(record) || descentIdx >= len(record) {
			continue
		}

		ts, err := time.Parse(DateLayout, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			continue
		}
		category, ok := descentCodes[strings.TrimSpace(record[descentIdx])]
		if !ok {
			continue
		}
		counts.add(ts.Year(), category, 1)
	}

	return Normalize(counts), nil
}
