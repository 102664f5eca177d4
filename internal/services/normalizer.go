package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/codyseavey/renaiss-bot/internal/models"
)

const (
	// Ask and offer prices are on-chain USDT amounts with 18 decimals
	tokenAmountExponent = 18
	// FMV is reported in US cents
	centsExponent = 2
	priceDecimals = 2
)

var errMissingField = errors.New("missing required field")

// trpcBatchItem is one element of the tRPC batch response array.
// Every level is a pointer so a missing level can be told apart from an empty one.
type trpcBatchItem struct {
	Result *struct {
		Data *struct {
			JSON *struct {
				Collection json.RawMessage `json:"collection"`
			} `json:"json"`
		} `json:"data"`
	} `json:"result"`
}

// extractCollection returns the raw items of the first batch result.
// ok is false when the payload does not have the expected shape.
func extractCollection(body []byte) (items []json.RawMessage, ok bool) {
	var batch []trpcBatchItem
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, false
	}
	if len(batch) == 0 || batch[0].Result == nil || batch[0].Result.Data == nil || batch[0].Result.Data.JSON == nil {
		return nil, false
	}
	if err := json.Unmarshal(batch[0].Result.Data.JSON.Collection, &items); err != nil {
		return nil, false
	}
	return items, true
}

// RawCollectionSize reports how many raw records a response page held, valid or not
func RawCollectionSize(body []byte) int {
	items, _ := extractCollection(body)
	return len(items)
}

// NormalizeResponse turns a Renaiss collectible.list response into normalized cards.
// An empty or malformed payload yields an empty slice; bad records are skipped.
func NormalizeResponse(body []byte, baseURL string) []models.NormalizedCard {
	items, ok := extractCollection(body)
	if !ok {
		log.Println("Renaiss: API returned empty or invalid data format")
		return []models.NormalizedCard{}
	}

	cards := make([]models.NormalizedCard, 0, len(items))
	for i, raw := range items {
		var item map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&item); err != nil || item == nil {
			log.Printf("Renaiss: skipping collection item %d: not an object", i)
			continue
		}

		card, err := NormalizeRecord(item, baseURL)
		if err != nil {
			log.Printf("Renaiss: error normalizing card data: %v", err)
			continue
		}
		cards = append(cards, card)
	}

	log.Printf("Renaiss: successfully normalized %d of %d cards", len(cards), len(items))
	return cards
}

// NormalizeRecord converts one raw market record. Returns *NormalizationError
// when identity fields are missing or a price cannot be converted.
func NormalizeRecord(item map[string]any, baseURL string) (models.NormalizedCard, error) {
	id, err := identityField(item, "id")
	if err != nil {
		return models.NormalizedCard{}, &NormalizationError{Field: "id", Err: err}
	}
	tokenID, err := identityField(item, "tokenId")
	if err != nil {
		return models.NormalizedCard{}, &NormalizationError{RecordID: id, Field: "tokenId", Err: err}
	}
	name, ok := item["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return models.NormalizedCard{}, &NormalizationError{RecordID: id, Field: "name", Err: errMissingField}
	}

	ask, err := ScalePrice(item["askPriceInUSDT"], tokenAmountExponent)
	if err != nil {
		return models.NormalizedCard{}, &NormalizationError{RecordID: id, Field: "askPriceInUSDT", Err: err}
	}
	fmv, err := ScalePrice(item["fmvPriceInUSD"], centsExponent)
	if err != nil {
		return models.NormalizedCard{}, &NormalizationError{RecordID: id, Field: "fmvPriceInUSD", Err: err}
	}
	offer, err := ScalePrice(item["offerPriceInUSDT"], tokenAmountExponent)
	if err != nil {
		return models.NormalizedCard{}, &NormalizationError{RecordID: id, Field: "offerPriceInUSDT", Err: err}
	}

	return models.NormalizedCard{
		RenaissID:  id,
		TokenID:    tokenID,
		Name:       name,
		Grade:      optionalString(item["grade"]),
		ImageURL:   optionalString(item["frontImageUrl"]),
		AskPrice:   ask,
		FMVPrice:   fmv,
		OfferPrice: offer,
		Link:       CardLink(baseURL, tokenID),
	}, nil
}

// CardLink builds the canonical marketplace link for a token
func CardLink(baseURL, tokenID string) string {
	return strings.TrimRight(baseURL, "/") + "/card/" + tokenID
}

// ScalePrice divides a raw fixed-point amount by 10^exponent and rounds to cents.
// Absent, null, empty, false or zero values yield an invalid (null) decimal.
func ScalePrice(raw any, exponent int32) (decimal.NullDecimal, error) {
	var d decimal.Decimal
	var err error

	switch v := raw.(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case bool:
		if !v {
			return decimal.NullDecimal{}, nil
		}
		return decimal.NullDecimal{}, fmt.Errorf("unsupported boolean price %v", v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.NullDecimal{}, nil
		}
		d, err = decimal.NewFromString(s)
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case float64:
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	default:
		return decimal.NullDecimal{}, fmt.Errorf("unsupported price type %T", raw)
	}
	if err != nil {
		return decimal.NullDecimal{}, err
	}

	if d.IsZero() {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(d.Shift(-exponent).Round(priceDecimals)), nil
}

// identityField reads an external id that the API may send as a string or a number
func identityField(item map[string]any, key string) (string, error) {
	switch v := item[key].(type) {
	case nil:
		return "", errMissingField
	case string:
		if strings.TrimSpace(v) == "" {
			return "", errMissingField
		}
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported id type %T", v)
	}
}

func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
