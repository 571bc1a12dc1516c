package metrics

const (
	namespaceDeploy = "vault_deploy"
)

const (
	LabelContract = "contract"
	LabelNetwork  = "network"
	LabelStep     = "step"
)
