package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"

	compensation "envecom-simulator/internal/compensation/domain"
)

var (
	errEmptyResponse = errors.New("gemini: empty response")
	fencePattern     = regexp.MustCompile("```(?i:json)?")
)

// DecodeFields reads the model answer into a partial bill. It tries strict
// JSON first, then a repaired document, then Hjson.
func DecodeFields(text string) (compensation.PartialBillInput, error) {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
	if cleaned == "" {
		return compensation.PartialBillInput{}, errEmptyResponse
	}

	if partial, err := decodeJSON(cleaned); err == nil {
		return partial, nil
	}

	if repaired, err := jsonrepair.RepairJSON(cleaned); err == nil {
		if partial, err := decodeJSON(repaired); err == nil {
			return partial, nil
		}
	}

	var loose map[string]any
	if err := hjson.Unmarshal([]byte(cleaned), &loose); err != nil {
		return compensation.PartialBillInput{}, fmt.Errorf("gemini: undecodable response: %w", err)
	}
	normalized, err := json.Marshal(loose)
	if err != nil {
		return compensation.PartialBillInput{}, fmt.Errorf("gemini: undecodable response: %w", err)
	}
	return decodeJSON(string(normalized))
}

func decodeJSON(text string) (compensation.PartialBillInput, error) {
	var partial compensation.PartialBillInput
	if err := json.Unmarshal([]byte(text), &partial); err != nil {
		return compensation.PartialBillInput{}, err
	}
	return partial, nil
}
