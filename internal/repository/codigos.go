package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// siguienteCodigo returns MAX(codigo)+1 of a zero-padded numeric code column.
// Callers run it inside the same transaction as the insert; the unique index
// on codigo rejects the loser of a concurrent race.
func siguienteCodigo(db *gorm.DB, tabla string, ancho int) (string, error) {
	var n int
	q := fmt.Sprintf("SELECT COALESCE(MAX(codigo::int), 0) + 1 FROM %s WHERE codigo ~ '^[0-9]+$'", tabla)
	if err := db.Raw(q).Scan(&n).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", ancho, n), nil
}

// conn picks the open transaction when there is one.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
