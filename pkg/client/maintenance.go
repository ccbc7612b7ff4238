package client

import (
	"net/url"
	"strconv"

	"barbersched/pkg/model"
)

type MaintenanceClient struct {
	httpClient *HttpClient
}

func NewMaintenanceClient(httpClient *HttpClient) *MaintenanceClient {
	return &MaintenanceClient{httpClient: httpClient}
}

func (c *MaintenanceClient) Initialize(days int) (*Response, error) {
	path := "/api/v1/maintenance/initialize"
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	return c.httpClient.POST(path, nil)
}

func (c *MaintenanceClient) Run() (*Response, error) {
	return c.httpClient.POST("/api/v1/maintenance/run", nil)
}

func (c *MaintenanceClient) ForceRelease(bookingID string) (*Response, error) {
	return c.httpClient.POST("/api/v1/maintenance/force-release/"+url.PathEscape(bookingID), nil)
}

func (c *MaintenanceClient) Consistency(barberID, from, to string, fix bool) (*Response, error) {
	q := url.Values{}
	if barberID != "" {
		q.Set("barber_id", barberID)
	}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	if fix {
		q.Set("fix", "true")
	}
	return c.httpClient.POST("/api/v1/maintenance/consistency?"+q.Encode(), nil)
}

func (c *MaintenanceClient) DecodeConsistency(resp *Response) (*model.ConsistencyReport, error) {
	return DecodeData[*model.ConsistencyReport](resp)
}
