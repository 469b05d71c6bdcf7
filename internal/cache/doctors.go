package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/hackgods/hospital-scheduling/internal/appointment"
)

// DoctorCache wraps a Repository and keeps doctor profiles in memory for
// directory reads. Writes that go through it invalidate the cached entry.
// DoctorActive is not cached: other instances may change the flag.
type DoctorCache struct {
	appointment.Repository
	cache *gocache.Cache
}

func NewDoctorCache(repo appointment.Repository, ttl time.Duration) *DoctorCache {
	return &DoctorCache{
		Repository: repo,
		cache:      gocache.New(ttl, 2*ttl),
	}
}

func (c *DoctorCache) GetDoctorByID(ctx context.Context, id uuid.UUID) (*appointment.Doctor, error) {
	if v, ok := c.cache.Get(id.String()); ok {
		d := v.(appointment.Doctor)
		return &d, nil
	}

	d, err := c.Repository.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(id.String(), *d)
	return d, nil
}

func (c *DoctorCache) SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) (*appointment.Doctor, error) {
	c.cache.Delete(id.String())

	d, err := c.Repository.SetDoctorActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(id.String(), *d)
	return d, nil
}

func (c *DoctorCache) UpdateDoctor(ctx context.Context, d appointment.Doctor) (*appointment.Doctor, error) {
	c.cache.Delete(d.ID.String())

	updated, err := c.Repository.UpdateDoctor(ctx, d)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(d.ID.String(), *updated)
	return updated, nil
}

// Flush drops every cached doctor.
func (c *DoctorCache) Flush() {
	c.cache.Flush()
}
