package engine

import (
	"fmt"
	"sync"

	"threat-intel-service/internal/model"
)

// CampaignRegistry owns campaign identity allocation, the campaign records
// and the event→campaign membership map. It is the only place campaign ids
// are minted, so resetting the registry resets the id sequence for tests.
type CampaignRegistry struct {
	mu            sync.RWMutex
	nextID        int
	campaigns     map[string]model.Campaign
	order         []string
	eventCampaign map[string]string
}

// NewCampaignRegistry creates an empty registry starting at CAMPAIGN_0001.
func NewCampaignRegistry() *CampaignRegistry {
	return &CampaignRegistry{
		nextID:        1,
		campaigns:     make(map[string]model.Campaign),
		eventCampaign: make(map[string]string),
	}
}

// Register allocates the next campaign id, stores the record and maps every
// member event to it (last registration wins for overlapping membership).
// The stored record is immutable; an id collision is a programming error.
func (r *CampaignRegistry) Register(campaign model.Campaign) model.Campaign {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := fmt.Sprintf("CAMPAIGN_%04d", r.nextID)
	r.nextID++
	if _, exists := r.campaigns[id]; exists {
		panic(fmt.Sprintf("campaign id collision: %s", id))
	}

	campaign.CampaignID = id
	r.campaigns[id] = campaign
	r.order = append(r.order, id)
	for _, eventID := range campaign.AttackIDs {
		r.eventCampaign[eventID] = id
	}
	return campaign
}

// Get returns the campaign with the given id.
func (r *CampaignRegistry) Get(campaignID string) (model.Campaign, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[campaignID]
	return c, ok
}

// List returns all campaigns in creation (id) order.
func (r *CampaignRegistry) List() []model.Campaign {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Campaign, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.campaigns[id])
	}
	return out
}

// CampaignOf returns the id of the campaign the event was last assigned to.
func (r *CampaignRegistry) CampaignOf(eventID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.eventCampaign[eventID]
	return id, ok
}

// Count returns the number of registered campaigns.
func (r *CampaignRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.campaigns)
}
