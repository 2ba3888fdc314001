package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nightapi/nightapi/internal/apierror"
	"github.com/nightapi/nightapi/internal/catalog"
)

const (
	defaultForecastDays = 5
	defaultNewsLimit    = 10
	defaultImageWidth   = 800
	defaultImageHeight  = 600
)

// DemoHandler serves the endpoints answered from built-in tables: weather,
// news, currency, location, translation and placeholder images.
type DemoHandler struct {
	catalog *catalog.Catalog
	baseURL string
}

// NewDemoHandler creates a DemoHandler. An empty baseURL derives generated
// image URLs from the request.
func NewDemoHandler(c *catalog.Catalog, baseURL string) *DemoHandler {
	return &DemoHandler{catalog: c, baseURL: baseURL}
}

// unsupported turns "unsupported value: base currency XYZ" into
// "Unsupported base currency XYZ".
func unsupported(err error) *apierror.Error {
	if !errors.Is(err, catalog.ErrUnsupported) {
		return apierror.Internal("An internal error occurred").Wrap(err)
	}
	msg := strings.TrimPrefix(err.Error(), catalog.ErrUnsupported.Error()+": ")
	return apierror.Validation("Unsupported %s", msg).Wrap(err)
}

type locationInput struct {
	Location string `json:"location" validate:"required,min=1,max=100"`
	Days     int    `json:"days" validate:"gte=1,lte=14"`
}

// CurrentWeather returns current conditions for a location.
//
// GET /api/weather/current
func (h *DemoHandler) CurrentWeather(w http.ResponseWriter, r *http.Request) {
	in := locationInput{Location: r.URL.Query().Get("location"), Days: 1}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	writeJSON(w, r, http.StatusOK, h.catalog.Current(in.Location))
}

// Forecast returns a daily forecast.
//
// GET /api/weather/forecast
func (h *DemoHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, apiErr := queryInt(q, "days", defaultForecastDays)
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	in := locationInput{Location: q.Get("location"), Days: days}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	writeJSON(w, r, http.StatusOK, h.catalog.Forecast(in.Location, in.Days))
}

type latestNewsInput struct {
	Limit int `json:"limit" validate:"gte=1,lte=50"`
}

type newsInput struct {
	Query string `json:"query" validate:"required,min=1,max=200"`
	Limit int    `json:"limit" validate:"gte=1,lte=50"`
}

type latestNewsResponse struct {
	Category string            `json:"category"`
	Count    int               `json:"count"`
	Articles []catalog.Article `json:"articles"`
}

type newsSearchResponse struct {
	Query        string            `json:"query"`
	Count        int               `json:"count"`
	TotalResults int               `json:"total_results"`
	Articles     []catalog.Article `json:"articles"`
}

// LatestNews lists recent articles, newest first.
//
// GET /api/news/latest
func (h *DemoHandler) LatestNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, apiErr := queryInt(q, "limit", defaultNewsLimit)
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	if apiErr := validateInput(latestNewsInput{Limit: limit}); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	category, articles := h.catalog.LatestNews(q.Get("category"), limit)
	writeJSON(w, r, http.StatusOK, latestNewsResponse{Category: category, Count: len(articles), Articles: articles})
}

// SearchNews matches articles by title or summary.
//
// GET /api/news/search
func (h *DemoHandler) SearchNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, apiErr := queryInt(q, "limit", defaultNewsLimit)
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	in := newsInput{Query: q.Get("query"), Limit: limit}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	articles, total := h.catalog.SearchNews(in.Query, in.Limit)
	writeJSON(w, r, http.StatusOK, newsSearchResponse{
		Query:        in.Query,
		Count:        len(articles),
		TotalResults: total,
		Articles:     articles,
	})
}

type currencyInput struct {
	From   string  `json:"from" validate:"required,len=3"`
	To     string  `json:"to" validate:"required,len=3"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// CurrencyRates lists every rate relative to base (USD by default).
//
// GET /api/currency/rates
func (h *DemoHandler) CurrencyRates(w http.ResponseWriter, r *http.Request) {
	table, err := h.catalog.Rates(orDefault(r.URL.Query().Get("base"), "USD"))
	if err != nil {
		apierror.Write(w, r, unsupported(err))
		return
	}
	writeJSON(w, r, http.StatusOK, table)
}

// ConvertCurrency converts an amount between two currencies.
//
// GET /api/currency/convert
func (h *DemoHandler) ConvertCurrency(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, apiErr := queryFloat(q, "amount")
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	in := currencyInput{From: q.Get("from"), To: q.Get("to"), Amount: amount}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	conv, err := h.catalog.Convert(in.From, in.To, in.Amount)
	if err != nil {
		apierror.Write(w, r, unsupported(err))
		return
	}
	writeJSON(w, r, http.StatusOK, conv)
}

type geocodeInput struct {
	Address string `json:"address" validate:"required,min=1,max=200"`
}

type reverseInput struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Geocode resolves an address to coordinates.
//
// GET /api/location/geocode
func (h *DemoHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	in := geocodeInput{Address: r.URL.Query().Get("address")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	writeJSON(w, r, http.StatusOK, h.catalog.Geocode(in.Address))
}

// ReverseGeocode finds the known place nearest to a coordinate.
//
// GET /api/location/reverse
func (h *DemoHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, apiErr := queryFloat(q, "lat")
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	lon, apiErr := queryFloat(q, "lon")
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	in := reverseInput{Lat: lat, Lon: lon}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	writeJSON(w, r, http.StatusOK, h.catalog.Reverse(in.Lat, in.Lon))
}

type translateInput struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
	From string `json:"from" validate:"omitempty,len=2"`
	To   string `json:"to" validate:"required,len=2"`
}

type languagesResponse struct {
	Count     int                `json:"count"`
	Languages []catalog.Language `json:"languages"`
}

// Translate translates a phrase between the supported languages.
//
// GET /api/translate
func (h *DemoHandler) Translate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := translateInput{Text: q.Get("text"), From: q.Get("from"), To: q.Get("to")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	out, err := h.catalog.Translate(in.Text, strings.ToLower(in.From), strings.ToLower(in.To))
	if err != nil {
		apierror.Write(w, r, unsupported(err))
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// Languages lists the supported translation languages.
//
// GET /api/languages
func (h *DemoHandler) Languages(w http.ResponseWriter, r *http.Request) {
	langs := h.catalog.Languages()
	writeJSON(w, r, http.StatusOK, languagesResponse{Count: len(langs), Languages: langs})
}

type generateImageInput struct {
	Prompt string `json:"prompt" validate:"required,min=1,max=1000"`
	Width  int    `json:"width" validate:"gte=1,lte=4096"`
	Height int    `json:"height" validate:"gte=1,lte=4096"`
	Format string `json:"format" validate:"oneof=jpg png"`
}

type resizeImageInput struct {
	URL    string `json:"url" validate:"required,url"`
	Width  int    `json:"width" validate:"gte=1,lte=4096"`
	Height int    `json:"height" validate:"gte=1,lte=4096"`
	Format string `json:"format" validate:"oneof=jpg png webp"`
}

// GenerateImage returns a placeholder image URL for a prompt.
//
// GET /api/image/generate
func (h *DemoHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, apiErr := queryInt(q, "width", defaultImageWidth)
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	height, apiErr := queryInt(q, "height", defaultImageHeight)
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	in := generateImageInput{Prompt: q.Get("prompt"), Width: width, Height: height, Format: orDefault(q.Get("format"), "jpg")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	img, err := h.catalog.GenerateImage(requestBaseURL(r, h.baseURL), in.Prompt, in.Width, in.Height, in.Format)
	if err != nil {
		apierror.Write(w, r, apierror.Internal("Failed to generate image").Wrap(err))
		return
	}
	writeJSON(w, r, http.StatusOK, img)
}

// ResizeImage returns a placeholder URL for a resized copy of an image.
//
// GET /api/image/resize
func (h *DemoHandler) ResizeImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, apiErr := queryInt(q, "width", 0)
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	height, apiErr := queryInt(q, "height", 0)
	if apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}
	in := resizeImageInput{URL: q.Get("url"), Width: width, Height: height, Format: orDefault(q.Get("format"), "jpg")}
	if apiErr := validateInput(in); apiErr != nil {
		apierror.Write(w, r, apiErr)
		return
	}

	img, err := h.catalog.ResizeImage(requestBaseURL(r, h.baseURL), in.URL, in.Width, in.Height, in.Format)
	if err != nil {
		apierror.Write(w, r, apierror.Internal("Failed to resize image").Wrap(err))
		return
	}
	writeJSON(w, r, http.StatusOK, img)
}
