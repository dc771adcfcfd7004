package scenario

import "github.com/me/momtest/pkg/model"

// Builtin returns the standard scenario table. Only om3_core3 and
// global_0.25_degree_NYF are enabled; the rest are kept for running by
// name on platforms that have their inputs.
func Builtin() []model.Scenario {
	small := func(ncpus, npes, mem string) model.Resources {
		return model.Resources{NCPUs: ncpus, NPEs: npes, Mem: mem}
	}
	return []model.Scenario{
		{
			Name: "om3_core3", ModelType: "MOM_SIS", Experiment: "om3_core3",
			Resources:   small("32", "24", ""),
			Description: "1 degree global ocean-ice, CORE normal year forcing",
		},
		{
			Name: "global_0.25_degree_NYF", ModelType: "MOM_SIS", Experiment: "global_0.25_degree_NYF",
			Resources:   small("960", "960", "1900Gb"),
			Description: "quarter degree global ocean-ice, normal year forcing",
		},
		{
			Name: "om3_core1", ModelType: "MOM_SIS", Experiment: "om3_core1",
			Resources: small("32", "24", ""), Disabled: true,
		},
		{
			Name: "atlantic1", ModelType: "MOM_SIS", Experiment: "atlantic1",
			Resources: small("32", "24", "64Gb"), Disabled: true,
		},
		{
			Name: "mom4p1_ebm1", ModelType: "EBM", Experiment: "mom4p1_ebm1",
			Resources: small("32", "17", "64Gb"), Disabled: true,
		},
		{
			Name: "MOM_SIS_TOPAZ", ModelType: "MOM_SIS", Experiment: "MOM_SIS_TOPAZ",
			Resources: model.Resources{NCPUs: "32", NPEs: "24", Walltime: "02:00:00"},
			Disabled:  true,
		},
		{
			Name: "MOM_SIS_BLING", ModelType: "MOM_SIS", Experiment: "MOM_SIS_BLING",
			Resources: small("32", "24", ""), Disabled: true,
		},
		{
			Name: "CM2.1p1", ModelType: "CM2M", Experiment: "CM2.1p1",
			Resources: small("64", "45", "128Gb"), Disabled: true,
		},
		{
			Name: "CM2M_coarse_BLING", ModelType: "CM2M", Experiment: "CM2M_coarse_BLING",
			Resources: small("64", "45", "128Gb"), Disabled: true,
		},
		{
			Name: "ICCMp1", ModelType: "ICCM", Experiment: "ICCMp1",
			Resources: small("64", "54", "128Gb"), Disabled: true,
		},
		{
			Name: "ESM2M_pi-control_C2", ModelType: "ESM2M", Experiment: "ESM2M_pi-control_C2",
			Resources: small("128", "90", "256Gb"), Disabled: true,
		},
	}
}

// Default returns a registry of the built-in scenarios.
func Default() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}
