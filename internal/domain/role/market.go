package role

import "encoding/json"

// MarketRole is an installable preset from the market catalog. ID is the
// market-side identifier, which is never reused as a repository id.
type MarketRole struct {
	Role
	DownloadURL string `json:"downloadUrl"`
	Homepage    string `json:"homepage,omitempty"`
}

type marketExtras struct {
	DownloadURL string `json:"downloadUrl"`
	Homepage    string `json:"homepage"`
}

// DecodeMarketRole validates one untrusted catalog entry.
func DecodeMarketRole(raw json.RawMessage) (MarketRole, error) {
	r, err := DecodeDocument(raw)
	if err != nil {
		return MarketRole{}, err
	}
	var extras marketExtras
	_ = json.Unmarshal(raw, &extras)
	return MarketRole{Role: r, DownloadURL: extras.DownloadURL, Homepage: extras.Homepage}, nil
}
