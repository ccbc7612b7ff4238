package client

import (
	"fmt"
	"net/url"

	"barbersched/pkg/model"
)

type AbsenceClient struct {
	httpClient *HttpClient
}

func NewAbsenceClient(httpClient *HttpClient) *AbsenceClient {
	return &AbsenceClient{httpClient: httpClient}
}

func absencePath(id, suffix string) string {
	return "/api/v1/absences/id/" + url.PathEscape(id) + suffix
}

func (c *AbsenceClient) Create(req *model.AbsenceRequest) (*Response, error) {
	return c.httpClient.POST("/api/v1/absences", req)
}

func (c *AbsenceClient) List(barberID, status string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if barberID != "" {
		q.Set("barber_id", barberID)
	}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	return c.httpClient.GET("/api/v1/absences?" + q.Encode())
}

func (c *AbsenceClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET(absencePath(id, ""))
}

func (c *AbsenceClient) AffectedBookings(id string) (*Response, error) {
	return c.httpClient.GET(absencePath(id, "/affected-bookings"))
}

func (c *AbsenceClient) Approve(id string) (*Response, error) {
	return c.httpClient.POST(absencePath(id, "/approve"), nil)
}

func (c *AbsenceClient) Process(id string, req *model.ProcessApprovalRequest) (*Response, error) {
	return c.httpClient.POST(absencePath(id, "/process"), req)
}

func (c *AbsenceClient) Reject(id string, req *model.RejectAbsenceRequest) (*Response, error) {
	return c.httpClient.POST(absencePath(id, "/reject"), req)
}

func (c *AbsenceClient) Reschedule(id string, req *model.RescheduleRequest) (*Response, error) {
	return c.httpClient.POST(absencePath(id, "/reschedule"), req)
}

func (c *AbsenceClient) DecodeAbsence(resp *Response) (*model.Absence, error) {
	return DecodeData[*model.Absence](resp)
}

func (c *AbsenceClient) DecodeAbsences(resp *Response) ([]*model.Absence, *Metadata, error) {
	return DecodePage[*model.Absence](resp)
}
