package platform

import (
	"github.com/goccy/go-json"

	"github.com/alem-hub/reboot-profile/internal/domain/progress"
)

// Mapper converts platform DTOs into progress rows.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// User maps a user row. Attrs are decoded when they are valid JSON.
func (m *Mapper) User(dto UserDTO) progress.User {
	u := progress.User{ID: dto.ID, Login: dto.Login}
	if len(dto.Attrs) > 0 {
		var attrs any
		if err := json.Unmarshal(dto.Attrs, &attrs); err == nil {
			u.Attrs = attrs
		} else {
			u.Attrs = string(dto.Attrs)
		}
	}
	return u
}

// Object maps an optional object.
func (m *Mapper) Object(dto *ObjectDTO) progress.Object {
	if dto == nil {
		return progress.Object{}
	}
	return progress.Object{ID: dto.ID, Name: dto.Name, Type: dto.Type}
}

// Transactions maps transaction rows. An empty type falls back to fallbackType.
func (m *Mapper) Transactions(dtos []TransactionDTO, fallbackType string) []progress.Transaction {
	out := make([]progress.Transaction, 0, len(dtos))
	for _, dto := range dtos {
		txType := dto.Type
		if txType == "" {
			txType = fallbackType
		}
		out = append(out, progress.Transaction{
			ID:        dto.ID,
			Type:      txType,
			Amount:    dto.Amount,
			Path:      dto.Path,
			ObjectID:  dto.ObjectID,
			CreatedAt: dto.CreatedAt,
			Object:    m.Object(dto.Object),
		})
	}
	return out
}

// Records maps progress or result rows.
func (m *Mapper) Records(dtos []RecordDTO, source progress.RecordSource) []progress.Record {
	out := make([]progress.Record, 0, len(dtos))
	for _, dto := range dtos {
		objectID := dto.ObjectID
		if objectID == 0 && dto.Object != nil {
			objectID = dto.Object.ID
		}
		out = append(out, progress.Record{
			ID:        dto.ID,
			ObjectID:  objectID,
			Grade:     dto.Grade,
			Path:      dto.Path,
			CreatedAt: dto.CreatedAt,
			Object:    m.Object(dto.Object),
			Source:    source,
		})
	}
	return out
}

// Audits maps audit rows.
func (m *Mapper) Audits(dtos []AuditDTO) []progress.Audit {
	out := make([]progress.Audit, 0, len(dtos))
	for _, dto := range dtos {
		a := progress.Audit{
			ID:        dto.ID,
			Grade:     dto.Grade,
			CreatedAt: dto.CreatedAt,
			EndAt:     dto.EndAt,
			ResultID:  dto.ResultID,
		}
		if dto.Group != nil {
			if dto.Group.Object != nil {
				a.Project = dto.Group.Object.Name
			}
			if dto.Group.Captain != nil {
				a.Captain = dto.Group.Captain.Login
			}
		}
		out = append(out, a)
	}
	return out
}

func sumAmount(dto aggregateSumDTO) float64 {
	if dto.Aggregate.Sum.Amount == nil {
		return 0
	}
	return *dto.Aggregate.Sum.Amount
}
