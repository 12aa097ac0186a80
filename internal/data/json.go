package data

import (
	"encoding/json"
	"os"

	"annual-plan/internal/model"

	"github.com/pkg/errors"
)

// LoadOutlookJSON reads the utility outlook record (heco_outlook.json).
func LoadOutlookJSON(path string) (*model.Outlook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read outlook")
	}
	var o model.Outlook
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, errors.Wrapf(err, "parse outlook %s", path)
	}
	if o.TechTechGroup == nil {
		o.TechTechGroup = map[string]string{}
	}
	if o.TechsForTechGroup == nil {
		o.TechsForTechGroup = map[string][]string{}
	}
	if o.LastDefiniteTarget == nil {
		o.LastDefiniteTarget = map[string]int{}
	}
	return &o, nil
}
