package repository

import (
	"errors"

	"github.com/amirasaad/crowdpledge/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts GORM errors to domain errors so database
// details stay inside the infrastructure layer.
func MapGormErrorToDomain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrAlreadyExists
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	}
	return err
}

// WrapError wraps a GORM operation and maps its error.
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(m).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
