package consumer

import "encoding/json"

func (c *Consumer) MarshalJSON() ([]byte, error) {
	var info struct {
		ID              string  `json:"id"`
		ProducerID      string  `json:"producerId"`
		Kind            string  `json:"kind"`
		Type            string  `json:"type"`
		Closed          bool    `json:"closed,omitempty"`
		Paused          bool    `json:"paused,omitempty"`
		ProducerPaused  bool    `json:"producerPaused,omitempty"`
		Priority        int     `json:"priority"`
		Score           Score   `json:"score"`
		PreferredLayers *Layers `json:"preferredLayers,omitempty"`
		CurrentLayers   *Layers `json:"currentLayers,omitempty"`
	}

	info.ID = c.id
	info.ProducerID = c.producerID
	info.Kind = c.kind
	info.Type = c.typ

	c.mu.Lock()
	info.Closed = c.closed
	info.Paused = c.paused
	info.ProducerPaused = c.producerPaused
	info.Priority = c.priority
	info.Score = c.score
	info.PreferredLayers = c.preferredLayers
	info.CurrentLayers = c.currentLayers
	c.mu.Unlock()

	return json.Marshal(info)
}
