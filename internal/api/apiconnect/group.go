package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsettle/internal/api"
)

// GroupServiceName is the fully-qualified name of the GroupService service.
const GroupServiceName = "tabsettle.v1.GroupService"

const (
	GroupServiceCreateGroupProcedure  = "/tabsettle.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure     = "/tabsettle.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure   = "/tabsettle.v1.GroupService/ListGroups"
	GroupServiceUpdateGroupProcedure  = "/tabsettle.v1.GroupService/UpdateGroup"
	GroupServiceDeleteGroupProcedure  = "/tabsettle.v1.GroupService/DeleteGroup"
	GroupServiceAddMembersProcedure   = "/tabsettle.v1.GroupService/AddMembers"
	GroupServiceCreateMemberProcedure = "/tabsettle.v1.GroupService/CreateMember"
	GroupServiceListMembersProcedure  = "/tabsettle.v1.GroupService/ListMembers"
	GroupServiceUpdateMemberProcedure = "/tabsettle.v1.GroupService/UpdateMember"
	GroupServiceDeleteMemberProcedure = "/tabsettle.v1.GroupService/DeleteMember"
)

// GroupServiceHandler manages groups and the member directory.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
	AddMembers(context.Context, *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error)
	CreateMember(context.Context, *connect.Request[api.CreateMemberRequest]) (*connect.Response[api.CreateMemberResponse], error)
	ListMembers(context.Context, *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error)
	UpdateMember(context.Context, *connect.Request[api.UpdateMemberRequest]) (*connect.Response[api.UpdateMemberResponse], error)
	DeleteMember(context.Context, *connect.Request[api.DeleteMemberRequest]) (*connect.Response[api.DeleteMemberResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(opts, WithJSON())
	routes := map[string]http.Handler{
		GroupServiceCreateGroupProcedure:  connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		GroupServiceGetGroupProcedure:     connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...),
		GroupServiceListGroupsProcedure:   connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...),
		GroupServiceUpdateGroupProcedure:  connect.NewUnaryHandler(GroupServiceUpdateGroupProcedure, svc.UpdateGroup, opts...),
		GroupServiceDeleteGroupProcedure:  connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...),
		GroupServiceAddMembersProcedure:   connect.NewUnaryHandler(GroupServiceAddMembersProcedure, svc.AddMembers, opts...),
		GroupServiceCreateMemberProcedure: connect.NewUnaryHandler(GroupServiceCreateMemberProcedure, svc.CreateMember, opts...),
		GroupServiceListMembersProcedure:  connect.NewUnaryHandler(GroupServiceListMembersProcedure, svc.ListMembers, opts...),
		GroupServiceUpdateMemberProcedure: connect.NewUnaryHandler(GroupServiceUpdateMemberProcedure, svc.UpdateMember, opts...),
		GroupServiceDeleteMemberProcedure: connect.NewUnaryHandler(GroupServiceDeleteMemberProcedure, svc.DeleteMember, opts...),
	}
	return "/" + GroupServiceName + "/", route(routes)
}

// GroupServiceClient is a client for the GroupService service.
type GroupServiceClient interface {
	GroupServiceHandler
}

type groupServiceClient struct {
	createGroup  *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup     *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listGroups   *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	updateGroup  *connect.Client[api.UpdateGroupRequest, api.UpdateGroupResponse]
	deleteGroup  *connect.Client[api.DeleteGroupRequest, api.DeleteGroupResponse]
	addMembers   *connect.Client[api.AddMembersRequest, api.AddMembersResponse]
	createMember *connect.Client[api.CreateMemberRequest, api.CreateMemberResponse]
	listMembers  *connect.Client[api.ListMembersRequest, api.ListMembersResponse]
	updateMember *connect.Client[api.UpdateMemberRequest, api.UpdateMemberResponse]
	deleteMember *connect.Client[api.DeleteMemberRequest, api.DeleteMemberResponse]
}

// NewGroupServiceClient constructs a client for the GroupService service.
// baseURL is the server root, e.g. http://localhost:8080.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	opts = append(opts, WithJSON())
	return &groupServiceClient{
		createGroup:  connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:     connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:   connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		updateGroup:  connect.NewClient[api.UpdateGroupRequest, api.UpdateGroupResponse](httpClient, baseURL+GroupServiceUpdateGroupProcedure, opts...),
		deleteGroup:  connect.NewClient[api.DeleteGroupRequest, api.DeleteGroupResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		addMembers:   connect.NewClient[api.AddMembersRequest, api.AddMembersResponse](httpClient, baseURL+GroupServiceAddMembersProcedure, opts...),
		createMember: connect.NewClient[api.CreateMemberRequest, api.CreateMemberResponse](httpClient, baseURL+GroupServiceCreateMemberProcedure, opts...),
		listMembers:  connect.NewClient[api.ListMembersRequest, api.ListMembersResponse](httpClient, baseURL+GroupServiceListMembersProcedure, opts...),
		updateMember: connect.NewClient[api.UpdateMemberRequest, api.UpdateMemberResponse](httpClient, baseURL+GroupServiceUpdateMemberProcedure, opts...),
		deleteMember: connect.NewClient[api.DeleteMemberRequest, api.DeleteMemberResponse](httpClient, baseURL+GroupServiceDeleteMemberProcedure, opts...),
	}
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	return c.addMembers.CallUnary(ctx, req)
}

func (c *groupServiceClient) CreateMember(ctx context.Context, req *connect.Request[api.CreateMemberRequest]) (*connect.Response[api.CreateMemberResponse], error) {
	return c.createMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	return c.listMembers.CallUnary(ctx, req)
}

func (c *groupServiceClient) UpdateMember(ctx context.Context, req *connect.Request[api.UpdateMemberRequest]) (*connect.Response[api.UpdateMemberResponse], error) {
	return c.updateMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) DeleteMember(ctx context.Context, req *connect.Request[api.DeleteMemberRequest]) (*connect.Response[api.DeleteMemberResponse], error) {
	return c.deleteMember.CallUnary(ctx, req)
}

// route dispatches on the full procedure path.
func route(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
