package application

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	compensation "envecom-simulator/internal/compensation/domain"
)

// policyFile mirrors the yaml policy document. Absent keys keep the defaults.
type policyFile struct {
	Floors                 map[string]float64 `yaml:"floors"`
	TUSDCompensationFactor *float64           `yaml:"tusd_compensation_factor"`
	MemberShareRate        *float64           `yaml:"member_share_rate"`
	AssociationShareRate   *float64           `yaml:"association_share_rate"`
	UnknownClass           string             `yaml:"unknown_connection_class"`
}

// LoadPolicy loads the compensation policy from defaults, the optional yaml file
// named by COMPENSATION_POLICY_FILE and the UNKNOWN_CONNECTION_POLICY override.
func LoadPolicy() (compensation.Policy, error) {
	policy := compensation.DefaultPolicy()

	if path := os.Getenv("COMPENSATION_POLICY_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return policy, err
		}
		policy, err = ParsePolicy(data, policy)
		if err != nil {
			return policy, err
		}
	}

	if value := strings.TrimSpace(os.Getenv("UNKNOWN_CONNECTION_POLICY")); value != "" {
		policy.UnknownClass = compensation.UnknownClassPolicy(strings.ToLower(value))
	}
	if err := policy.Validate(); err != nil {
		return policy, err
	}
	return policy, nil
}

// ParsePolicy overlays a yaml policy document on base.
func ParsePolicy(data []byte, base compensation.Policy) (compensation.Policy, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return base, fmt.Errorf("%w: %v", compensation.ErrInvalidPolicy, err)
	}
	return mergePolicy(base, file)
}

func mergePolicy(base compensation.Policy, override policyFile) (compensation.Policy, error) {
	floors := make(map[compensation.ConnectionClass]float64, len(base.Floors))
	for class, floor := range base.Floors {
		floors[class] = floor
	}
	keys := make([]string, 0, len(override.Floors))
	for key := range override.Floors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		class, ok := compensation.ParseConnectionClass(key)
		if !ok {
			return base, fmt.Errorf("%w: floor for unknown class %q", compensation.ErrInvalidPolicy, key)
		}
		floors[class] = override.Floors[key]
	}
	base.Floors = floors

	if override.TUSDCompensationFactor != nil {
		base.TUSDCompensationFactor = *override.TUSDCompensationFactor
	}
	if override.MemberShareRate != nil {
		base.MemberShareRate = *override.MemberShareRate
	}
	if override.AssociationShareRate != nil {
		base.AssociationShareRate = *override.AssociationShareRate
	}
	if override.UnknownClass != "" {
		base.UnknownClass = compensation.UnknownClassPolicy(strings.ToLower(strings.TrimSpace(override.UnknownClass)))
	}
	return base, nil
}
