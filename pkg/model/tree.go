package model

// ValidateTree materializes every node below spec, including every schema
// reference, and returns the first failure
func ValidateTree(spec *Specification) error {
	servers, err := spec.Servers()
	if err != nil {
		return err
	}
	for _, server := range servers {
		if _, err := server.Variables(); err != nil {
			return err
		}
	}

	paths, err := spec.Paths()
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := walkParameters(path.Parameters()); err != nil {
			return err
		}
		if err := walkOperations(path.Methods()); err != nil {
			return err
		}
	}
	return nil
}

func walkOperations(ops []*Operation, err error) error {
	if err != nil {
		return err
	}
	for _, op := range ops {
		if err := walkParameters(op.Parameters()); err != nil {
			return err
		}
		if err := walkContents(op.RequestBody()); err != nil {
			return err
		}

		responses, err := op.Responses()
		if err != nil {
			return err
		}
		for _, res := range responses {
			if err := walkContents(res.Contents()); err != nil {
				return err
			}
			headers, err := res.Headers()
			if err != nil {
				return err
			}
			for _, h := range headers {
				if _, err := h.RawSchema(); err != nil {
					return err
				}
			}
		}

		callbacks, err := op.Callbacks()
		if err != nil {
			return err
		}
		for _, cb := range callbacks {
			urls, err := cb.URLs()
			if err != nil {
				return err
			}
			for _, u := range urls {
				if err := walkOperations(u.Methods()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func walkParameters(params []*Parameter, err error) error {
	if err != nil {
		return err
	}
	for _, p := range params {
		if _, err := p.RawSchema(); err != nil {
			return err
		}
	}
	return nil
}

func walkContents(contents []*Content, err error) error {
	if err != nil {
		return err
	}
	for _, c := range contents {
		if _, err := c.RawSchema(); err != nil {
			return err
		}
	}
	return nil
}
