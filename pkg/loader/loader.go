// pkg/loader/loader.go
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/wearalytics/tracker-qc/pkg/model"
)

// Loader reads the wearable CSV export files into datasets. It owns all
// type coercion: the engine assumes well-formed (if dirty) values, so a
// cell that cannot be coerced is a load error, never a rule verdict.
type Loader struct {
	dir    string
	logger *zap.Logger
}

// NewLoader creates a Loader reading from the given export directory
func NewLoader(dir string, logger *zap.Logger) (*Loader, error) {
	if dir == "" {
		return nil, errors.New("data directory cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Loader{dir: dir, logger: logger.Named("loader")}, nil
}

// columnSpec maps one CSV column onto a schema field with its parser
type columnSpec struct {
	source string // CSV header name
	field  string // schema field name
	parse  func(string) (interface{}, error)
}

// fileSpec describes one export file. hourColumn names a timestamp column
// from which the Date and Hour schema fields are derived.
type fileSpec struct {
	kind       model.DatasetKind
	filename   string
	columns    []columnSpec
	hourColumn string
}

// fileSpecs lists every supported export file, in the fixed kind order
var fileSpecs = []fileSpec{
	{
		kind:     model.KindDailyActivity,
		filename: "dailyActivity_merged.csv",
		columns: []columnSpec{
			{"Id", "Id", asString},
			{"ActivityDate", "Date", asTime},
			{"TotalSteps", "TotalSteps", asFloat},
			{"TotalDistance", "TotalDistance", asFloat},
			{"Calories", "Calories", asFloat},
			{"VeryActiveMinutes", "VeryActiveMinutes", asFloat},
			{"FairlyActiveMinutes", "FairlyActiveMinutes", asFloat},
			{"LightlyActiveMinutes", "LightlyActiveMinutes", asFloat},
			{"SedentaryMinutes", "SedentaryMinutes", asFloat},
		},
	},
	{
		kind:     model.KindSleep,
		filename: "sleepDay_merged.csv",
		columns: []columnSpec{
			{"Id", "Id", asString},
			{"SleepDay", "Date", asTime},
			{"TotalMinutesAsleep", "TotalMinutesAsleep", asFloat},
			{"TotalTimeInBed", "TotalTimeInBed", asFloat},
		},
	},
	{
		kind:     model.KindHeartRate,
		filename: "heartrate_seconds_merged.csv",
		columns: []columnSpec{
			{"Id", "Id", asString},
			{"Time", "Timestamp", asTime},
			{"Value", "Value", asFloat},
		},
	},
	{
		kind:     model.KindWeight,
		filename: "weightLogInfo_merged.csv",
		columns: []columnSpec{
			{"Id", "Id", asString},
			{"Date", "Date", asTime},
			{"WeightKg", "Weight", asFloat},
			{"BMI", "Bmi", asFloat},
			{"Fat", "Fat", asFloat},
		},
	},
	{
		kind:       model.KindHourlyCalories,
		filename:   "hourlyCalories_merged.csv",
		hourColumn: "ActivityHour",
		columns: []columnSpec{
			{"Id", "Id", asString},
			{"Calories", "Calories", asFloat},
		},
	},
	{
		kind:       model.KindHourlySteps,
		filename:   "hourlySteps_merged.csv",
		hourColumn: "ActivityHour",
		columns: []columnSpec{
			{"Id", "Id", asString},
			{"StepTotal", "StepTotal", asFloat},
		},
	},
	{
		kind:       model.KindHourlyIntensities,
		filename:   "hourlyIntensities_merged.csv",
		hourColumn: "ActivityHour",
		columns: []columnSpec{
			{"Id", "Id", asString},
			{"TotalIntensity", "TotalIntensity", asFloat},
			{"AverageIntensity", "AverageIntensity", asFloat},
		},
	},
}

// LoadAll reads every export file present in the data directory. Missing
// files are skipped with a warning; the engine validates whatever loaded.
func (l *Loader) LoadAll() (map[model.DatasetKind]*model.Dataset, error) {
	datasets := make(map[model.DatasetKind]*model.Dataset)

	for _, spec := range fileSpecs {
		path := filepath.Join(l.dir, spec.filename)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			l.logger.Warn("Export file not found, skipping",
				zap.String("file", spec.filename),
				zap.String("dataset", string(spec.kind)))
			continue
		}

		ds, err := l.loadFile(path, spec)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", spec.filename, err)
		}

		l.logger.Info("Loaded export file",
			zap.String("file", spec.filename),
			zap.String("dataset", string(spec.kind)),
			zap.Int("rows", ds.Len()))

		datasets[spec.kind] = ds
	}

	if len(datasets) == 0 {
		return nil, fmt.Errorf("no export files found in %s", l.dir)
	}

	return datasets, nil
}

// Load reads a single dataset kind from its export file
func (l *Loader) Load(kind model.DatasetKind) (*model.Dataset, error) {
	for _, spec := range fileSpecs {
		if spec.kind == kind {
			return l.loadFile(filepath.Join(l.dir, spec.filename), spec)
		}
	}
	return nil, fmt.Errorf("no export file mapping for dataset kind: %s", kind)
}

func (l *Loader) loadFile(path string, spec fileSpec) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	// Every mapped source column must be present in the file
	for _, col := range spec.columns {
		if _, ok := index[col.source]; !ok {
			return nil, fmt.Errorf("missing column %q", col.source)
		}
	}
	if spec.hourColumn != "" {
		if _, ok := index[spec.hourColumn]; !ok {
			return nil, fmt.Errorf("missing column %q", spec.hourColumn)
		}
	}

	ds, err := model.NewDataset(spec.kind)
	if err != nil {
		return nil, err
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		line++

		row := make(model.Row, len(ds.Fields))
		for _, field := range ds.Fields {
			row[field] = nil
		}

		for _, col := range spec.columns {
			value, err := col.parse(record[index[col.source]])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, col.source, err)
			}
			row[col.field] = value
		}

		if spec.hourColumn != "" {
			if err := deriveDateAndHour(row, record[index[spec.hourColumn]]); err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, spec.hourColumn, err)
			}
		}

		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

// deriveDateAndHour splits an hourly timestamp cell into the Date and
// Hour schema fields. An empty cell leaves both missing.
func deriveDateAndHour(row model.Row, cell string) error {
	value, err := asTime(cell)
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}

	t := value.(time.Time)
	row["Date"] = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	row["Hour"] = float64(t.Hour())
	return nil
}
