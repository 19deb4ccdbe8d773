package queue

import (
	"database/sql"
	"errors"
	"time"
)

const requestColumns = "id, source, source_kind, local_path, output_name, output_dir, page_range, project_folder, move_original, status, error_message, progress_message, log_path, final_path, created_at, updated_at"

func scanRequest(scanner interface{ Scan(dest ...any) error }) (*Request, error) {
	var (
		id              int64
		source          string
		sourceKind      string
		localPath       sql.NullString
		outputName      string
		outputDir       string
		pageRange       string
		projectFolder   sql.NullInt64
		moveOriginal    sql.NullInt64
		statusStr       string
		errorMessage    sql.NullString
		progressMessage sql.NullString
		logPath         sql.NullString
		finalPath       sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&source,
		&sourceKind,
		&localPath,
		&outputName,
		&outputDir,
		&pageRange,
		&projectFolder,
		&moveOriginal,
		&statusStr,
		&errorMessage,
		&progressMessage,
		&logPath,
		&finalPath,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	pages, err := ParsePageRange(pageRange)
	if err != nil {
		pages = PageRange{}
	}

	req := &Request{
		ID:              id,
		Source:          source,
		SourceKind:      SourceKind(sourceKind),
		LocalPath:       localPath.String,
		OutputName:      outputName,
		OutputDir:       outputDir,
		Pages:           pages,
		Status:          Status(statusStr),
		ErrorMessage:    errorMessage.String,
		ProgressMessage: progressMessage.String,
		LogPath:         logPath.String,
		FinalPath:       finalPath.String,
	}
	if projectFolder.Valid {
		req.ProjectFolder = projectFolder.Int64 != 0
	}
	if moveOriginal.Valid {
		req.MoveOriginal = moveOriginal.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		req.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		req.UpdatedAt = updated
	}
	return req, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
