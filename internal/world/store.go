package world

// Store is the client's entity state: one table per category, because the
// categories have different lifecycles. The reconciler is its only writer;
// everything else reads it after the inbound phase of a tick.
type Store struct {
	Units       *Table[UnitRecord]
	Projectiles *Table[ProjectileRecord]
	Effects     *EffectQueue
}

func NewStore() *Store {
	return &Store{
		Units:       NewTable[UnitRecord](),
		Projectiles: NewTable[ProjectileRecord](),
		Effects:     NewEffectQueue(),
	}
}

// UnitAlive reports whether id is a known, living unit.
func (s *Store) UnitAlive(id uint32) bool {
	u, ok := s.Units.Get(id)
	return ok && u.Alive()
}

// Owned reports whether id is a living unit of group.
func (s *Store) Owned(id uint32, group uint8) bool {
	u, ok := s.Units.Get(id)
	return ok && u.Alive() && u.Group == group
}

// EachOwned visits living units of group in ascending ID order.
func (s *Store) EachOwned(group uint8, fn func(*UnitRecord)) {
	s.Units.Each(func(_ uint32, u *UnitRecord) {
		if u.Alive() && u.Group == group {
			fn(u)
		}
	})
}

// EachEnemy visits living units not in group in ascending ID order.
func (s *Store) EachEnemy(group uint8, fn func(*UnitRecord)) {
	s.Units.Each(func(_ uint32, u *UnitRecord) {
		if u.Alive() && u.Group != group {
			fn(u)
		}
	})
}
