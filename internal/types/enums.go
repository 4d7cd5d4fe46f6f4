package types

type DependencyKind string

const (
	DependencyKindRegistry DependencyKind = "registry"
	DependencyKindPath     DependencyKind = "path"
	DependencyKindVCS      DependencyKind = "vcs"
	DependencyKindURL      DependencyKind = "url"
)

type ConstraintOp string

const (
	ConstraintOpNone      ConstraintOp = ""
	ConstraintOpEq        ConstraintOp = "=="
	ConstraintOpArbitrary ConstraintOp = "==="
	ConstraintOpNe        ConstraintOp = "!="
	ConstraintOpCompat    ConstraintOp = "~="
	ConstraintOpGte       ConstraintOp = ">="
	ConstraintOpLte       ConstraintOp = "<="
	ConstraintOpGt        ConstraintOp = ">"
	ConstraintOpLt        ConstraintOp = "<"
)

type WarningKind string

const (
	WarningKindTranslation WarningKind = "translation"
	WarningKindUnsupported WarningKind = "unsupported"
	WarningKindDuplicate   WarningKind = "duplicate"
	WarningKindMetadata    WarningKind = "metadata"
)

const (
	GroupMain = "main"
	GroupDev  = "dev"
)
