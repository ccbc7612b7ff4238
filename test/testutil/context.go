package testutil

import (
	"context"

	"barbersched/pkg/actor"
)

func AdminCtx() context.Context {
	return actor.WithActor(context.Background(), actor.Actor{ID: "admin-1", Role: actor.RoleAdmin})
}

func BarberCtx(barberID string) context.Context {
	return actor.WithActor(context.Background(), actor.Actor{ID: barberID, Role: actor.RoleBarber})
}

func CustomerCtx() context.Context {
	return actor.WithActor(context.Background(), actor.Actor{ID: "customer-1", Role: actor.RoleCustomer})
}
