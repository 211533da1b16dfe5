package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Ошибки загрузки профиля.
var (
	// ErrProfileNotFound — файл профиля не найден.
	ErrProfileNotFound = errors.New("profile file not found")

	// ErrInvalidProfile — профиль не прошёл валидацию.
	ErrInvalidProfile = errors.New("invalid profile")
)

// birthDateLayout — формат даты рождения в профиле.
const birthDateLayout = "2006-01-02 15:04:05"

// Place — географическая точка с таймзоной.
type Place struct {
	// City — город.
	City string `yaml:"city"`

	// Country — страна.
	Country string `yaml:"country"`

	// Latitude — широта в градусах, север положительный.
	Latitude float64 `yaml:"latitude"`

	// Longitude — долгота в градусах, восток положительный.
	Longitude float64 `yaml:"longitude"`

	// Timezone — IANA-имя таймзоны (например, "Europe/Lisbon").
	Timezone string `yaml:"timezone"`
}

// Label возвращает "Город, Страна" для заголовков отчёта.
func (p Place) Label() string {
	if p.City == "" {
		return p.Country
	}
	if p.Country == "" {
		return p.City
	}
	return p.City + ", " + p.Country
}

// Location возвращает *time.Location для таймзоны точки.
func (p Place) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(p.Timezone)
}

// Birth — данные рождения субъекта.
type Birth struct {
	// Date — локальные дата и время рождения, "2006-01-02 15:04:05".
	Date string `yaml:"date"`

	// Place — место рождения.
	Place Place `yaml:"place"`
}

// Time возвращает момент рождения в таймзоне места рождения.
func (b Birth) Time() (time.Time, error) {
	loc, err := b.Place.Location()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: birth timezone: %v", ErrInvalidProfile, err)
	}
	t, err := time.ParseInLocation(birthDateLayout, b.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: birth date: %v", ErrInvalidProfile, err)
	}
	return t, nil
}

// ReportOptions — настройки формирования отчёта.
type ReportOptions struct {
	// IncludeAppendices — добавлять ли приложения с сырыми данными карт.
	IncludeAppendices bool `yaml:"include_appendices"`

	// OutputDir — каталог для артефактов отчёта.
	OutputDir string `yaml:"output_dir"`

	// NotesDir — каталог с биографическими заметками (markdown).
	NotesDir string `yaml:"notes_dir"`

	// FailurePolicy — "fail_fast" или "isolate".
	FailurePolicy string `yaml:"failure_policy"`
}

// Profile — профиль субъекта: кто, где родился, где находится сейчас
// и как формировать отчёт. Загружается из YAML-файла.
type Profile struct {
	// Name — имя субъекта.
	Name string `yaml:"name"`

	// Email — адрес для черновика письма (опционально).
	Email string `yaml:"email"`

	// Birth — данные рождения.
	Birth Birth `yaml:"birth"`

	// CurrentLocation — текущее местоположение для транзитной карты.
	CurrentLocation Place `yaml:"current_location"`

	// TransitMoment — момент транзита, RFC 3339.
	// Пустая строка — текущее время в таймзоне текущего местоположения.
	TransitMoment string `yaml:"transit_moment"`

	// Report — настройки отчёта.
	Report ReportOptions `yaml:"report"`
}

// defaults возвращает профиль с заполненными значениями по умолчанию.
// yaml.Unmarshal перекрывает только присутствующие в файле ключи.
func defaults() Profile {
	return Profile{
		Report: ReportOptions{
			IncludeAppendices: true,
			OutputDir:         "outputs",
			NotesDir:          "notes",
			FailurePolicy:     "fail_fast",
		},
	}
}

// Load читает и валидирует профиль субъекта из YAML-файла.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data)
}

// Parse разбирает профиль из YAML.
func Parse(data []byte) (*Profile, error) {
	p := defaults()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if _, err := p.Birth.Time(); err != nil {
		return err
	}
	if err := validatePlace("birth place", p.Birth.Place); err != nil {
		return err
	}
	if err := validatePlace("current location", p.CurrentLocation); err != nil {
		return err
	}
	if p.TransitMoment != "" {
		if _, err := time.Parse(time.RFC3339, p.TransitMoment); err != nil {
			return fmt.Errorf("%w: transit_moment: %v", ErrInvalidProfile, err)
		}
	}
	switch p.Report.FailurePolicy {
	case "fail_fast", "isolate":
	default:
		return fmt.Errorf("%w: failure_policy must be fail_fast or isolate, got %q",
			ErrInvalidProfile, p.Report.FailurePolicy)
	}
	return nil
}

func validatePlace(what string, pl Place) error {
	if pl.Latitude < -90 || pl.Latitude > 90 {
		return fmt.Errorf("%w: %s latitude out of range: %v", ErrInvalidProfile, what, pl.Latitude)
	}
	if pl.Longitude < -180 || pl.Longitude > 180 {
		return fmt.Errorf("%w: %s longitude out of range: %v", ErrInvalidProfile, what, pl.Longitude)
	}
	if _, err := pl.Location(); err != nil {
		return fmt.Errorf("%w: %s timezone: %v", ErrInvalidProfile, what, err)
	}
	return nil
}

// TransitTime возвращает момент транзита: явно заданный в профиле
// или текущее время в таймзоне текущего местоположения.
func (p *Profile) TransitTime(now func() time.Time) (time.Time, error) {
	if p.TransitMoment != "" {
		return time.Parse(time.RFC3339, p.TransitMoment)
	}
	loc, err := p.CurrentLocation.Location()
	if err != nil {
		return time.Time{}, err
	}
	return now().In(loc), nil
}
