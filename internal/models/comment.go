package models

import "time"

// Comment represents a comment on a post. ParentID points at the comment
// being replied to, always on the same post.
type Comment struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	PostID    uint        `json:"post_id" gorm:"index"`
	UserID    uint        `json:"user_id" gorm:"index"`
	User      UserCompact `json:"user" gorm:"-"`
	ParentID  *uint       `json:"parent_id" gorm:"index"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=2000"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// CommentNode is one comment with its rendered replies.
type CommentNode struct {
	Comment
	Depth   int            `json:"depth"`
	Replies []*CommentNode `json:"replies"`
}

// BuildCommentForest arranges flat comment rows into reply trees. Rows are
// expected in thread order (oldest first); replies keep that order. A
// comment whose parent is not among the rows becomes a root.
//
// Nesting stops at maxDepth: every reply below a node at maxDepth is listed
// flat under that node. The walk uses an explicit stack, so the cost is
// linear in the number of rows whatever the thread depth.
func BuildCommentForest(comments []Comment, maxDepth int) []*CommentNode {
	if maxDepth < 0 {
		maxDepth = 0
	}

	nodes := make(map[uint]*CommentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &CommentNode{Comment: comments[i], Replies: []*CommentNode{}}
	}

	children := make(map[uint][]*CommentNode)
	roots := make([]*CommentNode, 0)
	for i := range comments {
		n := nodes[comments[i].ID]
		if p := comments[i].ParentID; p != nil && *p != n.ID {
			if _, ok := nodes[*p]; ok {
				children[*p] = append(children[*p], n)
				continue
			}
		}
		roots = append(roots, n)
	}

	type frame struct {
		node *CommentNode
		// flat collects replies once the depth cap is reached.
		flat *CommentNode
	}

	stack := make([]frame, 0, len(comments))
	for i := len(roots) - 1; i >= 0; i-- {
		roots[i].Depth = 0
		stack = append(stack, frame{node: roots[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.flat != nil {
			f.node.Depth = f.flat.Depth + 1
			f.flat.Replies = append(f.flat.Replies, f.node)
		}

		kids := children[f.node.ID]
		flat := f.flat
		if flat == nil && f.node.Depth >= maxDepth {
			flat = f.node
		}
		if flat == nil {
			for _, k := range kids {
				k.Depth = f.node.Depth + 1
				f.node.Replies = append(f.node.Replies, k)
			}
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: kids[i], flat: flat})
		}
	}

	return roots
}
