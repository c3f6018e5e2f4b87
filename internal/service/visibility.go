package service

import (
	"context"

	"github.com/d60-Lab/shelfgraph/internal/repository"
)

// profileAccess 判断 viewer 能否查看 owner 的关注列表和动态。
// trusted 表示 viewer 是 owner 本人或已关注 owner；私密账号对其余人返回 ErrNotAuthorized。
func profileAccess(ctx context.Context, users repository.UserRepository, follows repository.FollowRepository, viewerID, ownerID string) (trusted bool, err error) {
	owner, err := users.Get(ctx, ownerID)
	if err != nil {
		return false, notFound(err, "user "+ownerID)
	}
	if viewerID == ownerID {
		return true, nil
	}
	if viewerID != "" {
		trusted, err = follows.Exists(ctx, viewerID, ownerID)
		if err != nil {
			return false, err
		}
	}
	if !owner.IsPublic && !trusted {
		return false, ErrNotAuthorized
	}
	return trusted, nil
}
