package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rangeindex/pkg/common"
)

var ErrNotFound = errors.New("record not found")

// Client talks to the HTTP API served by cmd/server.
type Client struct {
	base string
	http *http.Client
}

// Dial checks that the server at baseURL answers before returning a client.
func Dial(baseURL string) (*Client, error) {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{
		base: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
	resp, err := c.http.Get(c.base + "/api/stats")
	if err != nil {
		return nil, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: %s answered %s", c.base, resp.Status)
	}
	return c, nil
}

func (c *Client) Put(rec common.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+"/api/put", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return drain(resp, nil)
}

func (c *Client) Get(id int64) (common.Record, error) {
	var out struct {
		Record common.Record `json:"record"`
	}
	resp, err := c.http.Get(c.base + "/api/get?id=" + strconv.FormatInt(id, 10))
	if err != nil {
		return common.Record{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		drain(resp, nil)
		return common.Record{}, ErrNotFound
	}
	err = drain(resp, &out)
	return out.Record, err
}

func (c *Client) Delete(id int64) (bool, error) {
	var out struct {
		Deleted bool `json:"deleted"`
	}
	resp, err := c.http.Post(c.base+"/api/del?id="+strconv.FormatInt(id, 10), "", nil)
	if err != nil {
		return false, err
	}
	err = drain(resp, &out)
	return out.Deleted, err
}

// Scan returns at most limit records priced within [minPrice, maxPrice].
func (c *Client) Scan(minPrice, maxPrice float64, limit int) ([]common.Record, error) {
	q := url.Values{}
	q.Set("min", strconv.FormatFloat(minPrice, 'g', -1, 64))
	q.Set("max", strconv.FormatFloat(maxPrice, 'g', -1, 64))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.records("/api/scan?" + q.Encode())
}

// Query runs a SELECT statement on the server.
func (c *Client) Query(stmt string) ([]common.Record, error) {
	return c.records("/api/query?q=" + url.QueryEscape(stmt))
}

func (c *Client) records(path string) ([]common.Record, error) {
	var out struct {
		Records []common.Record `json:"records"`
	}
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return nil, err
	}
	err = drain(resp, &out)
	return out.Records, err
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// drain decodes a JSON body into v (if non-nil) and turns non-200
// responses into errors.
func drain(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("client: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if v == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
