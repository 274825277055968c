package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"raceday-api/models"
)

const startListSheet = "Start list"

var startListHeader = []interface{}{"#", "Name", "Gender", "City", "Age", "Distance", "Registered"}

// StartListFilename is the download name of an event's start list workbook
func StartListFilename(event *models.Event) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ' || r == '_':
			return '_'
		}
		return -1
	}, event.Name)
	if name == "" {
		name = fmt.Sprintf("event_%d", event.ID)
	}
	return fmt.Sprintf("%s_%s.xlsx", name, event.StartDatetime.UTC().Format(models.DateLayout))
}

// WriteStartList renders the start list as an XLSX workbook
func WriteStartList(event *models.Event, entries []models.StartListEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", startListSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	title := fmt.Sprintf("%s, %s, %s", event.Name, event.Location, event.StartDatetime.UTC().Format("2006-01-02 15:04"))
	if err := f.SetCellValue(startListSheet, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(startListSheet, "A2", &startListHeader); err != nil {
		return nil, err
	}

	for i, e := range entries {
		var age interface{}
		if e.Age != nil {
			age = *e.Age
		}
		row := []interface{}{
			i + 1,
			e.FullName,
			string(e.Gender),
			e.City,
			age,
			fmt.Sprintf("%d km", e.DistanceKm),
			e.RegistrationDate.UTC().Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(startListSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(startListSheet, "B", "B", 30); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
