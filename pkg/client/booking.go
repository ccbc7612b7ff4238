package client

import (
	"net/url"

	"barbersched/pkg/model"
)

// BookingClient drives the slot synchronization and assignment endpoints.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(httpClient *HttpClient) *BookingClient {
	return &BookingClient{httpClient: httpClient}
}

func bookingPath(id, suffix string) string {
	return "/api/v1/bookings/" + url.PathEscape(id) + suffix
}

func (c *BookingClient) Sync(bookingID string) (*Response, error) {
	return c.httpClient.POST(bookingPath(bookingID, "/sync"), nil)
}

func (c *BookingClient) CancelSync(bookingID string) (*Response, error) {
	return c.httpClient.POST(bookingPath(bookingID, "/cancel-sync"), nil)
}

func (c *BookingClient) Complete(bookingID string, req *model.CompleteBookingRequest) (*Response, error) {
	return c.httpClient.POST(bookingPath(bookingID, "/complete"), req)
}

func (c *BookingClient) AutoAssign(req *model.AutoAssignRequest) (*Response, error) {
	return c.httpClient.POST("/api/v1/assignments/auto", req)
}

func (c *BookingClient) AvailableBarbers(serviceID, date, at string) (*Response, error) {
	q := url.Values{}
	q.Set("service_id", serviceID)
	q.Set("date", date)
	if at != "" {
		q.Set("time", at)
	}
	return c.httpClient.GET("/api/v1/assignments/available-barbers?" + q.Encode())
}

func (c *BookingClient) DecodeSyncResult(resp *Response) (*model.SyncResult, error) {
	return DecodeData[*model.SyncResult](resp)
}
