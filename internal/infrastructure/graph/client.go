package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ldgsmhrd/selfstar/internal/config"
	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
	"github.com/ldgsmhrd/selfstar/internal/utils/metrics"
)

// Client talks to the Meta Graph API. It is constructed explicitly and
// injected into every component that needs it, so tests swap the base URLs
// for a local server. Calls are plain request/response with the configured
// timeout and are never retried here; retry policy belongs to the caller.
type Client struct {
	httpClient *http.Client
	graphURL   string
	oauthCfg   *oauth2.Config
	appID      string
	appSecret  string
	logger     *zap.Logger
}

// NewClient builds a Graph client from the Meta section of the config.
func NewClient(cfg config.MetaConfig, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		graphURL:   strings.TrimRight(cfg.GraphURL, "/"),
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  strings.TrimRight(cfg.DialogURL, "/") + "/dialog/oauth",
				TokenURL: strings.TrimRight(cfg.GraphURL, "/") + "/oauth/access_token",
			},
		},
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		logger:    logger.Named("graph_client"),
	}
}

// AuthCodeURL returns the authorize dialog URL carrying the signed state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauthCfg.AuthCodeURL(state)
}

// ShortLivedToken is the result of the one-shot code exchange.
type ShortLivedToken struct {
	AccessToken string
	ExpiresIn   int
}

// ExchangeCode trades the authorization code for a short-lived user token.
// Codes are single-use; a failure here is terminal for the flow.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*ShortLivedToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauthCfg.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, c.mapErrorBody(re.Response.StatusCode, re.Body)
		}
		return nil, &domainErrors.RemoteError{Body: err.Error()}
	}
	expiresIn := 0
	if !tok.Expiry.IsZero() {
		expiresIn = int(time.Until(tok.Expiry).Seconds())
	}
	return &ShortLivedToken{AccessToken: tok.AccessToken, ExpiresIn: expiresIn}, nil
}

// ExchangeLongLived trades a short-lived token for a long-lived one using
// the fb_exchange_token grant.
func (c *Client) ExchangeLongLived(ctx context.Context, shortToken string) (*ShortLivedToken, error) {
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	params := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {c.appID},
		"client_secret":     {c.appSecret},
		"fb_exchange_token": {shortToken},
	}
	if err := c.get(ctx, "oauth/access_token", params, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &domainErrors.RemoteError{StatusCode: http.StatusOK, Body: "access_token missing from exchange response"}
	}
	return &ShortLivedToken{AccessToken: out.AccessToken, ExpiresIn: out.ExpiresIn}, nil
}

// AccountProfile is the subset of account fields the service reads.
type AccountProfile struct {
	Username       string `json:"username"`
	FollowersCount int    `json:"followers_count"`
}

// AccountProfile reads username and follower count for an IG user id.
func (c *Client) AccountProfile(ctx context.Context, token, igUserID string) (*AccountProfile, error) {
	var out AccountProfile
	params := url.Values{
		"access_token": {token},
		"fields":       {"username,followers_count"},
	}
	if err := c.get(ctx, igUserID, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAccounts enumerates the user's Facebook pages that carry an Instagram
// business account.
func (c *Client) ListAccounts(ctx context.Context, token string) ([]models.AccountCandidate, error) {
	var out struct {
		Data []struct {
			ID                       string `json:"id"`
			Name                     string `json:"name"`
			InstagramBusinessAccount *struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			} `json:"instagram_business_account"`
		} `json:"data"`
	}
	params := url.Values{
		"access_token": {token},
		"fields":       {"id,name,instagram_business_account{id,username}"},
	}
	if err := c.get(ctx, "me/accounts", params, &out); err != nil {
		return nil, err
	}
	var items []models.AccountCandidate
	for _, p := range out.Data {
		if p.InstagramBusinessAccount == nil || p.InstagramBusinessAccount.ID == "" {
			continue
		}
		candidate := models.AccountCandidate{
			PageID:   p.ID,
			PageName: p.Name,
			IGUserID: p.InstagramBusinessAccount.ID,
		}
		if p.InstagramBusinessAccount.Username != "" {
			u := p.InstagramBusinessAccount.Username
			candidate.IGUsername = &u
		}
		items = append(items, candidate)
	}
	return items, nil
}

// InsightPoint is one day of an account insight series.
type InsightPoint struct {
	Date  string
	Value int
}

// rawInsightValue tolerates the Graph API returning either a number or an
// object for a metric value.
type rawInsightValue struct {
	Value   json.RawMessage `json:"value"`
	EndTime string          `json:"end_time"`
	Time    string          `json:"time"`
	Date    string          `json:"date"`
}

func (v rawInsightValue) date() string {
	for _, t := range []string{v.EndTime, v.Time, v.Date} {
		if len(t) >= 10 {
			return t[:10]
		}
	}
	return ""
}

func (v rawInsightValue) intValue() int {
	var n int
	if err := json.Unmarshal(v.Value, &n); err == nil {
		return n
	}
	var f float64
	if err := json.Unmarshal(v.Value, &f); err == nil {
		return int(f)
	}
	var obj struct {
		Value int `json:"value"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(v.Value, &obj); err == nil {
		if obj.Value != 0 {
			return obj.Value
		}
		return obj.Count
	}
	return 0
}

// DailyInsights reads day-period account insights for the given metric
// names. Retired metric names are the caller's concern; the response is
// returned keyed by the name the API reported.
func (c *Client) DailyInsights(ctx context.Context, token, igUserID string, metricNames []string, since, until time.Time) (map[string][]InsightPoint, error) {
	var out struct {
		Data []struct {
			Name   string            `json:"name"`
			Values []rawInsightValue `json:"values"`
		} `json:"data"`
	}
	params := url.Values{
		"metric":       {strings.Join(metricNames, ",")},
		"period":       {"day"},
		"since":        {since.Format("2006-01-02")},
		"access_token": {token},
	}
	if !until.IsZero() {
		params.Set("until", until.Format("2006-01-02"))
	}
	if err := c.get(ctx, igUserID+"/insights", params, &out); err != nil {
		return nil, err
	}
	series := make(map[string][]InsightPoint, len(out.Data))
	for _, m := range out.Data {
		points := make([]InsightPoint, 0, len(m.Values))
		for _, v := range m.Values {
			date := v.date()
			if date == "" {
				continue
			}
			points = append(points, InsightPoint{Date: date, Value: v.intValue()})
		}
		series[m.Name] = points
	}
	return series, nil
}

// Media is one content item with its engagement counters.
type Media struct {
	ID               string `json:"id"`
	Timestamp        string `json:"timestamp"`
	Caption          string `json:"caption"`
	Permalink        string `json:"permalink"`
	MediaType        string `json:"media_type"`
	MediaProductType string `json:"media_product_type"`
	MediaURL         string `json:"media_url"`
	ThumbnailURL     string `json:"thumbnail_url"`
	LikeCount        int    `json:"like_count"`
	CommentsCount    int    `json:"comments_count"`
}

// MediaPage is one page of media plus the continuation cursor.
type MediaPage struct {
	Data    []Media
	NextURL string
}

// MediaFields is the full field set for media listings.
const MediaFields = "id,timestamp,caption,permalink,media_type,media_product_type,media_url,thumbnail_url,like_count,comments_count"

// ListMedia reads one page of the account's media. since may be zero;
// limit must be positive.
func (c *Client) ListMedia(ctx context.Context, token, igUserID, fields string, limit int, since time.Time) (*MediaPage, error) {
	params := url.Values{
		"access_token": {token},
		"fields":       {fields},
		"limit":        {fmt.Sprintf("%d", limit)},
	}
	if !since.IsZero() {
		params.Set("since", since.Format("2006-01-02"))
	}
	return c.mediaPage(ctx, c.graphURL+"/"+igUserID+"/media?"+params.Encode(), igUserID+"/media")
}

// NextMediaPage follows a continuation URL returned in paging.next. The URL
// already carries the token and field parameters.
func (c *Client) NextMediaPage(ctx context.Context, nextURL string) (*MediaPage, error) {
	return c.mediaPage(ctx, nextURL, "media/next")
}

func (c *Client) mediaPage(ctx context.Context, fullURL, endpoint string) (*MediaPage, error) {
	var out struct {
		Data   []Media `json:"data"`
		Paging struct {
			Next string `json:"next"`
		} `json:"paging"`
	}
	if err := c.getURL(ctx, fullURL, endpoint, &out); err != nil {
		return nil, err
	}
	return &MediaPage{Data: out.Data, NextURL: out.Paging.Next}, nil
}

// Comment is one comment on a media item.
type Comment struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
	LikeCount int    `json:"like_count"`
}

// MediaComments reads recent comments for a media item.
func (c *Client) MediaComments(ctx context.Context, token, mediaID string, limit int) ([]Comment, error) {
	var out struct {
		Data []Comment `json:"data"`
	}
	params := url.Values{
		"access_token": {token},
		"fields":       {"id,text,username,timestamp,like_count"},
		"limit":        {fmt.Sprintf("%d", limit)},
	}
	if err := c.get(ctx, mediaID+"/comments", params, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ReplyToComment posts a reply under the comment and returns the new
// comment id.
func (c *Client) ReplyToComment(ctx context.Context, token, commentID, message string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	form := url.Values{
		"message":      {message},
		"access_token": {token},
	}
	if err := c.postForm(ctx, commentID+"/replies", form, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreateMediaContainer starts the two-step publish flow for a single image.
func (c *Client) CreateMediaContainer(ctx context.Context, token, igUserID, imageURL, caption string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	form := url.Values{
		"image_url":    {imageURL},
		"caption":      {caption},
		"access_token": {token},
	}
	if err := c.postForm(ctx, igUserID+"/media", form, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &domainErrors.RemoteError{StatusCode: http.StatusOK, Body: "creation_id missing"}
	}
	return out.ID, nil
}

// PublishMedia publishes a previously created container.
func (c *Client) PublishMedia(ctx context.Context, token, igUserID, creationID string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	form := url.Values{
		"creation_id":  {creationID},
		"access_token": {token},
	}
	if err := c.postForm(ctx, igUserID+"/media_publish", form, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.getURL(ctx, c.graphURL+"/"+path+"?"+params.Encode(), path, out)
}

func (c *Client) getURL(ctx context.Context, fullURL, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build graph request: %w", err)
	}
	return c.do(req, endpoint, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphURL+"/"+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build graph request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, endpoint string, out interface{}) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GraphRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GraphErrorsTotal.WithLabelValues("network").Inc()
		return &domainErrors.RemoteError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.GraphErrorsTotal.WithLabelValues("network").Inc()
		return &domainErrors.RemoteError{StatusCode: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return c.mapErrorBody(resp.StatusCode, body)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return &domainErrors.RemoteError{StatusCode: resp.StatusCode, Body: "unparseable graph response"}
		}
	}
	return nil
}

// mapErrorBody decodes the structured {error:{code,subcode}} body. The
// auth-exception code maps to ErrAuthRequired regardless of HTTP status;
// everything else surfaces status and body for diagnostics.
func (c *Client) mapErrorBody(status int, body []byte) error {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
			Subcode int    `json:"error_subcode"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &parsed)

	if parsed.Error.Code == domainErrors.GraphAuthErrorCode {
		metrics.GraphErrorsTotal.WithLabelValues("auth").Inc()
		return fmt.Errorf("%w: graph error code %d: %s", domainErrors.ErrAuthRequired, parsed.Error.Code, parsed.Error.Message)
	}
	class := "rejected"
	if status >= 500 {
		class = "transient"
	}
	metrics.GraphErrorsTotal.WithLabelValues(class).Inc()
	return &domainErrors.RemoteError{
		StatusCode: status,
		Code:       parsed.Error.Code,
		Subcode:    parsed.Error.Subcode,
		Body:       string(body),
	}
}
