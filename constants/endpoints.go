package constants

// REST endpoints of the CartCompass backend. Paths that embed an identifier
// are fmt verbs filled by the API client.
const (
	EndpointCSRF          = "/api/csrf/"
	EndpointUser          = "/api/user/"
	EndpointCreateUser    = "/api/createuser/"
	EndpointLogout        = "/api/logout/"
	EndpointFigures       = "/api/user/figures"
	EndpointGetReceipts   = "/api/getreceipts/"
	EndpointCreateReceipt = "/api/createreceipt/"
	EndpointReceipt       = "/api/receipt/%s/"
	EndpointGetItems      = "/api/getitems/%s/"
	EndpointCreateItem    = "/api/createitem/%s/"
	EndpointItem          = "/api/item/%s/"
	EndpointScrapeStore   = "/api/scrapestore"
)

// CSRF protection: the backend sets this cookie and expects it echoed in the
// header on every state-changing request.
const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"
)
