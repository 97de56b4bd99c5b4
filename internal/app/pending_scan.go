package app

import "foodfollow/internal/domain"

// PendingScan hands one scanned food from the scan flow to the meal draft.
// It holds at most one value and delivers it at most once.
type PendingScan struct {
	slot chan domain.FoodItem
}

// NewPendingScan creates an empty hand-off slot.
func NewPendingScan() *PendingScan {
	return &PendingScan{slot: make(chan domain.FoodItem, 1)}
}

// Put stores food, replacing any value not consumed yet.
func (p *PendingScan) Put(food domain.FoodItem) {
	for {
		select {
		case p.slot <- food:
			return
		default:
		}
		select {
		case <-p.slot:
		default:
		}
	}
}

// Consume takes the stored value. The second call after a Put reports ok=false.
func (p *PendingScan) Consume() (domain.FoodItem, bool) {
	select {
	case f := <-p.slot:
		return f, true
	default:
		return domain.FoodItem{}, false
	}
}
