package dto

type ResolveRouteResponse struct {
	Path        string `json:"path"`
	Allowed     bool   `json:"allowed"`
	Redirect    string `json:"redirect,omitempty"`
	PinRequired bool   `json:"pin_required"`
}
