package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func ReportStatusKey(reportID uuid.UUID) string {
	return fmt.Sprintf("report:%s", reportID)
}
