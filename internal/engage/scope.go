package engage

import (
	"context"
	"errors"
	"fmt"
)

// ResourceKind names a company-scoped resource type for scope resolution.
type ResourceKind string

const (
	KindCompany      ResourceKind = "company"
	KindCategory     ResourceKind = "category"
	KindItem         ResourceKind = "item"
	KindTeam         ResourceKind = "team"
	KindUser         ResourceKind = "user"
	KindNotification ResourceKind = "notification"
	KindElogio       ResourceKind = "elogio"
	KindSurvey       ResourceKind = "survey"
)

// ScopeResolver resolves the owning company of a resource, directly for
// entities that carry a company id and transitively through the owning user
// for notifications and elogios.
type ScopeResolver struct {
	store Store
}

// NewScopeResolver constructs a resolver over the store.
func NewScopeResolver(store Store) (*ScopeResolver, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	return &ScopeResolver{store: store}, nil
}

// CompanyIDs returns the company id(s) the resource belongs to. Elogios
// resolve to the companies of both endpoint users; every other kind resolves
// to exactly one id. A nonexistent resource returns ErrNotFound, which
// callers must surface as 404, distinct from an authorization denial.
func (r *ScopeResolver) CompanyIDs(ctx context.Context, kind ResourceKind, id int64) ([]int64, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: resource id is required", ErrInvalidInput)
	}
	switch kind {
	case KindCompany:
		c, err := r.store.Companies().Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return []int64{c.ID}, nil
	case KindCategory:
		c, err := r.store.Categories().Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return []int64{c.CompanyID}, nil
	case KindItem:
		it, err := r.store.Items().Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return []int64{it.CompanyID}, nil
	case KindTeam:
		t, err := r.store.Teams().Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return []int64{t.CompanyID}, nil
	case KindUser:
		u, err := r.store.Users().Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return []int64{u.CompanyID}, nil
	case KindSurvey:
		s, err := r.store.Surveys().Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return []int64{s.CompanyID}, nil
	case KindNotification:
		n, err := r.store.Notifications().Find(ctx, id)
		if err != nil {
			return nil, err
		}
		return r.CompanyIDs(ctx, KindUser, n.UserID)
	case KindElogio:
		e, err := r.store.Elogios().Find(ctx, id)
		if err != nil {
			return nil, err
		}
		from, err := r.store.Users().Find(ctx, e.FromUserID)
		if err != nil {
			return nil, err
		}
		to, err := r.store.Users().Find(ctx, e.ToUserID)
		if err != nil {
			return nil, err
		}
		if from.CompanyID == to.CompanyID {
			return []int64{from.CompanyID}, nil
		}
		return []int64{from.CompanyID, to.CompanyID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown resource kind %q", ErrInvalidInput, kind)
	}
}
