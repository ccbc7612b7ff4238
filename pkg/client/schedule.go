package client

import (
	"net/url"

	"barbersched/pkg/model"
)

type ScheduleClient struct {
	httpClient *HttpClient
}

func NewScheduleClient(httpClient *HttpClient) *ScheduleClient {
	return &ScheduleClient{httpClient: httpClient}
}

func barberPath(barberID, suffix string) string {
	return "/api/v1/barbers/" + url.PathEscape(barberID) + suffix
}

func (c *ScheduleClient) Availability(barberID, date string) (*Response, error) {
	q := url.Values{}
	q.Set("date", date)
	return c.httpClient.GET(barberPath(barberID, "/availability?"+q.Encode()))
}

func (c *ScheduleClient) RealTimeAvailability(barberID, date, from string) (*Response, error) {
	q := url.Values{}
	q.Set("date", date)
	if from != "" {
		q.Set("from", from)
	}
	return c.httpClient.GET(barberPath(barberID, "/availability/realtime?"+q.Encode()))
}

func (c *ScheduleClient) OffDay(barberID, date string) (*Response, error) {
	q := url.Values{}
	q.Set("date", date)
	return c.httpClient.GET(barberPath(barberID, "/off-day?"+q.Encode()))
}

func (c *ScheduleClient) BlockSlot(barberID string, req *model.BlockSlotRequest) (*Response, error) {
	return c.httpClient.POST(barberPath(barberID, "/slots/block"), req)
}

func (c *ScheduleClient) DecodeAvailability(resp *Response) (*model.Availability, error) {
	return DecodeData[*model.Availability](resp)
}
