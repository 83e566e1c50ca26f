package selection

import (
	"github.com/tfl/client/internal/geom"
	"github.com/tfl/client/internal/world"
)

// DragThreshold is the squared pixel distance a press must travel before
// its release counts as a box drag instead of a click.
const DragThreshold = 16 * 16

type IntentKind uint8

const (
	IntentNone IntentKind = iota
	IntentSelect
	IntentMove
	IntentAttack
)

func (k IntentKind) String() string {
	switch k {
	case IntentSelect:
		return "Select"
	case IntentMove:
		return "Move"
	case IntentAttack:
		return "Attack"
	default:
		return "None"
	}
}

// Intent is the outcome of one press-release gesture.
type Intent struct {
	Kind   IntentKind
	Target geom.Vec2 // ground XZ, IntentMove only
	Units  []uint32
	Enemy  uint32 // IntentAttack only
}

// Pointer tracks the primary button and turns gestures into selection
// changes or move intents.
type Pointer struct {
	res     *Resolver
	sel     *world.Selection
	begin   geom.Vec2
	pressed bool
}

func NewPointer(res *Resolver, sel *world.Selection) *Pointer {
	return &Pointer{res: res, sel: sel}
}

func (p *Pointer) Begin(x, y float32) {
	p.begin = geom.Vec2{X: x, Y: y}
	p.pressed = true
}

// Dragging reports whether the button is held.
func (p *Pointer) Dragging() bool { return p.pressed }

// End releases the button at (x, y). A drag replaces the selection with the
// owned units inside the box; a click with a non-empty selection yields a
// move to the ground point under the cursor.
func (p *Pointer) End(x, y float32, group uint8) Intent {
	end := geom.Vec2{X: x, Y: y}
	begin := end
	if p.pressed {
		begin = p.begin
	}
	p.pressed = false

	if begin.DistanceSquared(end) > DragThreshold {
		ids := p.res.BoxSelect(begin, end, group)
		p.sel.Replace(ids)
		return Intent{Kind: IntentSelect, Units: p.sel.IDs()}
	}
	if p.sel.Len() == 0 {
		return Intent{}
	}
	gp, ok := p.res.GroundPoint(x, y)
	if !ok {
		return Intent{}
	}
	return Intent{Kind: IntentMove, Target: gp.XZ(), Units: p.sel.IDs()}
}

// Cancel drops the selection and any press in progress.
func (p *Pointer) Cancel() {
	p.pressed = false
	p.sel.Clear()
}
