package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsettle/internal/api"
	"github.com/mmynk/tabsettle/internal/api/apiconnect"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
	"github.com/mmynk/tabsettle/internal/validation"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService
type GroupService struct {
	store     storage.Store
	validator *validation.Validator
	options
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, opts ...Option) *GroupService {
	return &GroupService{
		store:     store,
		validator: validation.New(),
		options:   newOptions(opts),
	}
}

// CreateGroup creates a new group from existing members.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIDs),
	)
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.requireMembers(ctx, req.Msg.MemberIDs); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		MemberIDs:   req.Msg.MemberIDs,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group and its resolved members, in roster order.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	byID, err := s.store.GetMembersByIDs(ctx, group.MemberIDs)
	if err != nil {
		return nil, toConnectError(err)
	}

	members := make([]*api.Member, 0, len(group.MemberIDs))
	for _, id := range group.MemberIDs {
		if m, ok := byID[id]; ok {
			members = append(members, toAPIMember(m))
		}
	}

	return connect.NewResponse(&api.GetGroupResponse{
		Group:   toAPIGroup(group),
		Members: members,
	}), nil
}

// ListGroups retrieves all active groups, newest first.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}
	slog.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup replaces a group's name, description and roster. Members that
// appear in active transactions cannot be removed from the roster.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	slog.Info("UpdateGroup request received",
		"group_id", req.Msg.GroupID,
		"members_count", len(req.Msg.MemberIDs),
	)
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.requireMembers(ctx, req.Msg.MemberIDs); err != nil {
		return nil, err
	}

	txs, err := s.store.ListActiveTransactions(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	keep := make(map[string]bool, len(req.Msg.MemberIDs))
	for _, id := range req.Msg.MemberIDs {
		keep[id] = true
	}
	for _, tx := range txs {
		for _, id := range referencedMembers(&tx) {
			if !keep[id] {
				return nil, failedPrecondition("member %s is referenced by transaction %s", id, tx.ID)
			}
		}
	}

	group := &models.Group{
		ID:          req.Msg.GroupID,
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		MemberIDs:   req.Msg.MemberIDs,
	}
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.invalidate(ctx, group.ID)

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Group updated", "group_id", group.ID)
	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroup(updated)}), nil
}

// DeleteGroup soft-deletes a group.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Error("DeleteGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	s.invalidate(ctx, req.Msg.GroupID)

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// AddMembers appends existing members to a group's roster.
func (s *GroupService) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.requireMembers(ctx, req.Msg.MemberIDs); err != nil {
		return nil, err
	}
	if err := s.store.AddGroupMembers(ctx, req.Msg.GroupID, req.Msg.MemberIDs); err != nil {
		slog.Error("AddMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	s.invalidate(ctx, req.Msg.GroupID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.AddMembersResponse{Group: toAPIGroup(group)}), nil
}

// CreateMember adds an entry to the member directory.
func (s *GroupService) CreateMember(ctx context.Context, req *connect.Request[api.CreateMemberRequest]) (*connect.Response[api.CreateMemberResponse], error) {
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	member := &models.Member{Name: req.Msg.Name}
	if err := s.store.CreateMember(ctx, member); err != nil {
		slog.Error("CreateMember failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Member created", "member_id", member.ID)
	return connect.NewResponse(&api.CreateMemberResponse{Member: toAPIMember(member)}), nil
}

// ListMembers returns the member directory ordered by name.
func (s *GroupService) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*api.Member, len(members))
	for i, m := range members {
		out[i] = toAPIMember(m)
	}
	return connect.NewResponse(&api.ListMembersResponse{Members: out}), nil
}

// UpdateMember renames a member. Cached summaries of the member's groups are
// dropped since they carry the name.
func (s *GroupService) UpdateMember(ctx context.Context, req *connect.Request[api.UpdateMemberRequest]) (*connect.Response[api.UpdateMemberResponse], error) {
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.UpdateMember(ctx, &models.Member{ID: req.Msg.MemberID, Name: req.Msg.Name}); err != nil {
		slog.Error("UpdateMember failed", "member_id", req.Msg.MemberID, "error", err)
		return nil, toConnectError(err)
	}
	groups, err := s.groupsOf(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, toConnectError(err)
	}
	s.invalidate(ctx, groups...)

	member, err := s.store.GetMember(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.UpdateMemberResponse{Member: toAPIMember(member)}), nil
}

// DeleteMember soft-deletes a member that is on no active group's roster.
func (s *GroupService) DeleteMember(ctx context.Context, req *connect.Request[api.DeleteMemberRequest]) (*connect.Response[api.DeleteMemberResponse], error) {
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	groups, err := s.groupsOf(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if len(groups) > 0 {
		return nil, failedPrecondition("member %s is on the roster of group %s", req.Msg.MemberID, groups[0])
	}

	if err := s.store.DeleteMember(ctx, req.Msg.MemberID); err != nil {
		slog.Error("DeleteMember failed", "member_id", req.Msg.MemberID, "error", err)
		return nil, toConnectError(err)
	}
	slog.Info("Member deleted", "member_id", req.Msg.MemberID)
	return connect.NewResponse(&api.DeleteMemberResponse{}), nil
}

// requireMembers rejects ids missing from the member directory.
func (s *GroupService) requireMembers(ctx context.Context, ids []string) error {
	found, err := s.store.GetMembersByIDs(ctx, ids)
	if err != nil {
		return toConnectError(err)
	}
	for i, id := range ids {
		if _, ok := found[id]; !ok {
			return invalidArgument(fmt.Sprintf("member_ids[%d]", i), fmt.Sprintf("unknown member %q", id))
		}
	}
	return nil
}

// groupsOf returns the IDs of active groups whose roster includes memberID.
func (s *GroupService) groupsOf(ctx context.Context, memberID string) ([]string, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, g := range groups {
		if g.HasMember(memberID) {
			ids = append(ids, g.ID)
		}
	}
	return ids, nil
}

// referencedMembers lists every member a transaction names.
func referencedMembers(tx *models.Transaction) []string {
	ids := []string{tx.PayerID}
	if tx.PayeeID != "" {
		ids = append(ids, tx.PayeeID)
	}
	for _, split := range tx.Splits {
		ids = append(ids, split.MemberID)
	}
	return ids
}
