package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type SourceKind string

const (
	SourceAuto     SourceKind = "auto"
	SourceManual   SourceKind = "manual"
	SourceBaseline SourceKind = "baseline"
)

type Aggregation string

const (
	AggSum Aggregation = "SUM"
	AggAvg Aggregation = "AVG"
)

func ParseAggregation(s string) (Aggregation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUM":
		return AggSum, nil
	case "AVG":
		return AggAvg, nil
	}
	return "", fmt.Errorf("%w: aggregation %q must be SUM or AVG", ErrInvalid, s)
}

// Source is where an EnPI numerator or denominator takes its monthly values
// from. It is one of AutoSource, ManualSource or BaselineSource.
type Source interface {
	Kind() SourceKind
}

// AutoSource aggregates a column of a collected source table per month.
type AutoSource struct {
	Table       string
	ValueColumn string
	TimeColumn  string
	Aggregation Aggregation
}

// ManualSource reads values typed in on the EnPI page.
type ManualSource struct {
	VariableName string
}

// BaselineSource reads the monitored data of a regression baseline. Column is
// "actual_consumption", "baseline_standard" or one of the baseline's factors.
type BaselineSource struct {
	BaselineID int64
	Column     string
}

const (
	ColumnActualConsumption = "actual_consumption"
	ColumnBaselineStandard  = "baseline_standard"
)

func (AutoSource) Kind() SourceKind     { return SourceAuto }
func (ManualSource) Kind() SourceKind   { return SourceManual }
func (BaselineSource) Kind() SourceKind { return SourceBaseline }

type EnpiDefinition struct {
	ID             int64
	Name           string
	Description    string
	Unit           string
	HigherIsBetter bool
	Numerator      Source
	Denominator    Source
}

// SourceColumns is the flat column layout used on the wire and in the database.
type SourceColumns struct {
	Type        string
	ManualName  string
	BaselineID  Num
	Table       string
	Column      string
	TimeColumn  string
	Aggregation string
}

// definitionWire keeps the flat JSON shape the pages post, with a
// numerator_* and denominator_* block per component.
type definitionWire struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Unit           string `json:"unit"`
	HigherIsBetter Flag   `json:"higher_is_better"`

	NumeratorSourceType   string `json:"numerator_source_type"`
	NumeratorManualName   string `json:"numerator_manual_name,omitempty"`
	NumeratorBaselineID   Num    `json:"numerator_baseline_id"`
	NumeratorSourceTable  string `json:"numerator_source_table,omitempty"`
	NumeratorSourceColumn string `json:"numerator_source_column,omitempty"`
	NumeratorTimeColumn   string `json:"numerator_time_column,omitempty"`
	NumeratorAggregation  string `json:"numerator_aggregation,omitempty"`

	DenominatorSourceType   string `json:"denominator_source_type"`
	DenominatorManualName   string `json:"denominator_manual_name,omitempty"`
	DenominatorBaselineID   Num    `json:"denominator_baseline_id"`
	DenominatorSourceTable  string `json:"denominator_source_table,omitempty"`
	DenominatorSourceColumn string `json:"denominator_source_column,omitempty"`
	DenominatorTimeColumn   string `json:"denominator_time_column,omitempty"`
	DenominatorAggregation  string `json:"denominator_aggregation,omitempty"`
}

func (d EnpiDefinition) MarshalJSON() ([]byte, error) {
	num := FlattenSource(d.Numerator)
	den := FlattenSource(d.Denominator)
	return json.Marshal(definitionWire{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		Unit:           d.Unit,
		HigherIsBetter: Flag(d.HigherIsBetter),

		NumeratorSourceType:   num.Type,
		NumeratorManualName:   num.ManualName,
		NumeratorBaselineID:   num.BaselineID,
		NumeratorSourceTable:  num.Table,
		NumeratorSourceColumn: num.Column,
		NumeratorTimeColumn:   num.TimeColumn,
		NumeratorAggregation:  num.Aggregation,

		DenominatorSourceType:   den.Type,
		DenominatorManualName:   den.ManualName,
		DenominatorBaselineID:   den.BaselineID,
		DenominatorSourceTable:  den.Table,
		DenominatorSourceColumn: den.Column,
		DenominatorTimeColumn:   den.TimeColumn,
		DenominatorAggregation:  den.Aggregation,
	})
}

func (d *EnpiDefinition) UnmarshalJSON(b []byte) error {
	var w definitionWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	num, err := BuildSource(SourceColumns{
		Type:        w.NumeratorSourceType,
		ManualName:  w.NumeratorManualName,
		BaselineID:  w.NumeratorBaselineID,
		Table:       w.NumeratorSourceTable,
		Column:      w.NumeratorSourceColumn,
		TimeColumn:  w.NumeratorTimeColumn,
		Aggregation: w.NumeratorAggregation,
	})
	if err != nil {
		return fmt.Errorf("numerator: %w", err)
	}
	den, err := BuildSource(SourceColumns{
		Type:        w.DenominatorSourceType,
		ManualName:  w.DenominatorManualName,
		BaselineID:  w.DenominatorBaselineID,
		Table:       w.DenominatorSourceTable,
		Column:      w.DenominatorSourceColumn,
		TimeColumn:  w.DenominatorTimeColumn,
		Aggregation: w.DenominatorAggregation,
	})
	if err != nil {
		return fmt.Errorf("denominator: %w", err)
	}
	*d = EnpiDefinition{
		ID:             w.ID,
		Name:           strings.TrimSpace(w.Name),
		Description:    w.Description,
		Unit:           strings.TrimSpace(w.Unit),
		HigherIsBetter: bool(w.HigherIsBetter),
		Numerator:      num,
		Denominator:    den,
	}
	return nil
}

func (d EnpiDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if d.Unit == "" {
		return fmt.Errorf("%w: unit is required", ErrInvalid)
	}
	if d.Numerator == nil || d.Denominator == nil {
		return fmt.Errorf("%w: numerator and denominator sources are required", ErrInvalid)
	}
	return nil
}

// FlattenSource maps a source onto the flat column layout. Fields that do not
// belong to the source kind stay empty.
func FlattenSource(s Source) SourceColumns {
	switch v := s.(type) {
	case AutoSource:
		return SourceColumns{Type: string(SourceAuto), Table: v.Table, Column: v.ValueColumn, TimeColumn: v.TimeColumn, Aggregation: string(v.Aggregation)}
	case ManualSource:
		return SourceColumns{Type: string(SourceManual), ManualName: v.VariableName}
	case BaselineSource:
		return SourceColumns{Type: string(SourceBaseline), BaselineID: Some(float64(v.BaselineID)), Column: v.Column}
	}
	return SourceColumns{}
}

// BuildSource is the inverse of FlattenSource. Only the fields relevant to the
// selected kind are read; they must all be present.
func BuildSource(w SourceColumns) (Source, error) {
	switch SourceKind(strings.TrimSpace(w.Type)) {
	case SourceManual:
		name := strings.TrimSpace(w.ManualName)
		if name == "" {
			return nil, fmt.Errorf("%w: manual source needs a variable name", ErrInvalid)
		}
		return ManualSource{VariableName: name}, nil
	case SourceAuto:
		if w.Table == "" || w.Column == "" || w.TimeColumn == "" {
			return nil, fmt.Errorf("%w: auto source needs table, value column and time column", ErrInvalid)
		}
		agg, err := ParseAggregation(w.Aggregation)
		if err != nil {
			return nil, err
		}
		return AutoSource{Table: w.Table, ValueColumn: w.Column, TimeColumn: w.TimeColumn, Aggregation: agg}, nil
	case SourceBaseline:
		id, ok := w.BaselineID.Get()
		if !ok || id <= 0 || w.Column == "" {
			return nil, fmt.Errorf("%w: baseline source needs a baseline and a column", ErrInvalid)
		}
		return BaselineSource{BaselineID: int64(id), Column: w.Column}, nil
	}
	return nil, fmt.Errorf("%w: unknown source type %q", ErrInvalid, w.Type)
}

// Flag decodes the checkbox-ish booleans the pages send (true, 1, "1", "on").
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch strings.Trim(strings.ToLower(string(b)), `"`) {
	case "true", "1", "on", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

type EnpiReportRow struct {
	Month             int    `json:"month"`
	MonthName         string `json:"month_name"`
	TargetValue       Num    `json:"target_value"`
	NumeratorValue    Num    `json:"numerator_value"`
	DenominatorValue  Num    `json:"denominator_value"`
	ActualEnpi        Num    `json:"actual_enpi"`
	AchievementRate   Num    `json:"achievement_rate"`
	AchievementStatus string `json:"achievement_status,omitempty"`
}

// EnpiReport is the payload of GET /api/enpi/data/{id}/{year}.
type EnpiReport struct {
	Definition EnpiDefinition  `json:"definition"`
	Year       int             `json:"year"`
	Report     []EnpiReportRow `json:"report"`
}

// EnpiDataInput is one month of the EnPI page save.
type EnpiDataInput struct {
	Month            int `json:"month"`
	TargetValue      Num `json:"target_value"`
	NumeratorValue   Num `json:"numerator_value"`
	DenominatorValue Num `json:"denominator_value"`
}

func (in EnpiDataInput) Validate() error {
	if in.Month < 1 || in.Month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", ErrInvalid)
	}
	return nil
}
