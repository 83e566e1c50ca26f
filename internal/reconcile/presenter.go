package reconcile

import "github.com/tfl/client/internal/world"

// Presenter is whatever draws entities. The reconciler calls Attach when an
// entity first appears and Detach exactly once when it is destroyed.
type Presenter interface {
	AttachUnit(u *world.UnitRecord)
	DetachUnit(id uint32)
	AttachProjectile(p *world.ProjectileRecord)
	DetachProjectile(id uint32)
	AttachEffect(e *world.TimedEffect)
	DetachEffect(handle uint64)
}

// NopPresenter is used by headless clients.
type NopPresenter struct{}

func (NopPresenter) AttachUnit(*world.UnitRecord)             {}
func (NopPresenter) DetachUnit(uint32)                        {}
func (NopPresenter) AttachProjectile(*world.ProjectileRecord) {}
func (NopPresenter) DetachProjectile(uint32)                  {}
func (NopPresenter) AttachEffect(*world.TimedEffect)          {}
func (NopPresenter) DetachEffect(uint64)                      {}
